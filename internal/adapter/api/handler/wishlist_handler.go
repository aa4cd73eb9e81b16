package handler

import (
	"github.com/labstack/echo/v4"

	"bookmarket/internal/usecase"
	"bookmarket/pkg/errors"
	"bookmarket/pkg/response"
	"bookmarket/pkg/utils"
)

type WishlistHandler struct {
	wishlistUseCase *usecase.WishlistUseCase
}

func NewWishlistHandler(wishlistUseCase *usecase.WishlistUseCase) *WishlistHandler {
	return &WishlistHandler{
		wishlistUseCase: wishlistUseCase,
	}
}

func (h *WishlistHandler) AddToWishlist(c echo.Context) error {
	userID := c.Get("uid").(string)
	bookID := c.Param("bookId")

	if bookID == "" {
		return response.Error(c, errors.BadRequest("Book ID is required", nil))
	}

	result, err := h.wishlistUseCase.Add(c.Request().Context(), userID, bookID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, result)
}

func (h *WishlistHandler) RemoveFromWishlist(c echo.Context) error {
	userID := c.Get("uid").(string)
	bookID := c.Param("bookId")

	if bookID == "" {
		return response.Error(c, errors.BadRequest("Book ID is required", nil))
	}

	if err := h.wishlistUseCase.Remove(c.Request().Context(), userID, bookID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "Book removed from wishlist",
	})
}

func (h *WishlistHandler) GetUserWishlist(c echo.Context) error {
	userID := c.Get("uid").(string)

	pagination := utils.GetPaginationParams(c)

	items, total, err := h.wishlistUseCase.List(
		c.Request().Context(),
		userID,
		pagination.Page,
		pagination.PageSize,
	)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, items, total, pagination.Page, pagination.PageSize)
}

func (h *WishlistHandler) CheckWishlistStatus(c echo.Context) error {
	userID := c.Get("uid").(string)
	bookID := c.Param("bookId")

	if bookID == "" {
		return response.Error(c, errors.BadRequest("Book ID is required", nil))
	}

	inWishlist, err := h.wishlistUseCase.Contains(c.Request().Context(), userID, bookID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"book_id":        bookID,
		"is_in_wishlist": inWishlist,
	})
}
