package router

import (
	"github.com/labstack/echo/v4"

	"bookmarket/internal/adapter/api/handler"
	"bookmarket/internal/adapter/api/middleware"
)

func SetupWishlistRouter(e *echo.Echo, wishlistHandler *handler.WishlistHandler, authMiddleware *middleware.AuthMiddleware) {
	wishlist := e.Group("/v1/wishlist")
	wishlist.Use(authMiddleware.Authenticate)

	wishlist.GET("", wishlistHandler.GetUserWishlist)
	wishlist.POST("/:bookId", wishlistHandler.AddToWishlist)
	wishlist.DELETE("/:bookId", wishlistHandler.RemoveFromWishlist)
	wishlist.GET("/:bookId/status", wishlistHandler.CheckWishlistStatus)
}
