package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"bookmarket/internal/adapter/api"
	"bookmarket/internal/adapter/api/handler"
	apimiddleware "bookmarket/internal/adapter/api/middleware"
	"bookmarket/internal/adapter/api/router"
	"bookmarket/internal/adapter/repository"
	"bookmarket/internal/infrastructure/videochat"
	"bookmarket/internal/infrastructure/websocket"
	"bookmarket/internal/usecase"
	"bookmarket/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); serviceAccountPath != "" {
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)
	bookRepo := repository.NewFirestoreBookRepository(firestoreClient)
	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	wishlistRepo := repository.NewFirestoreWishlistRepository(firestoreClient)

	wsManager := websocket.NewManager()
	emitter := handler.ManagerEmitter{Manager: wsManager}
	matcher := videochat.NewMatcher(emitter)
	rooms := videochat.NewRooms(emitter)

	messageUseCase := usecase.NewMessageUseCase(conversationRepo, bookRepo, userRepo, wsManager)
	wishlistUseCase := usecase.NewWishlistUseCase(wishlistRepo, bookRepo)

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)

	messageHandler := handler.NewMessageHandler(messageUseCase)
	wishlistHandler := handler.NewWishlistHandler(wishlistUseCase)
	healthHandler := handler.NewHealthHandler(wsManager, matcher, rooms)
	chatWsHandler := handler.NewChatWebSocketHandler(wsManager, authMiddleware)
	videoHandler := handler.NewVideoChatHandler(wsManager, matcher, rooms)

	e := echo.New()

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(apimiddleware.NewIPRateLimiter(120, time.Minute).Middleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{cfg.CORSOrigin},
	}))

	e.Validator = api.NewValidator()

	router.Setup(e, authMiddleware, messageHandler, wishlistHandler, healthHandler, chatWsHandler, videoHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
