// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/amityhq/amity/internal/auth"
	"github.com/amityhq/amity/internal/cache"
	"github.com/amityhq/amity/internal/chat"
	"github.com/amityhq/amity/internal/config"
	"github.com/amityhq/amity/internal/database"
	"github.com/amityhq/amity/internal/friends"
	"github.com/amityhq/amity/internal/handlers"
	"github.com/amityhq/amity/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if cfg.JWTPrivateKeyPath != "" && cfg.JWTPublicKeyPath != "" {
		if err := auth.InitFromPath(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath); err != nil {
			logger.Fatalf("failed to load jwt keys: %v", err)
		}
	} else {
		auth.Init()
	}

	pool, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	userStore := database.NewUserStore(pool)
	friendStore := database.NewFriendStore(pool)
	messageStore := database.NewMessageStore(pool)

	var feed chat.Sink
	if cfg.RedisAddr != "" {
		messageFeed, err := cache.NewMessageFeed(cfg.RedisAddr, cfg.RedisDB, cfg.MessageFeedQueue)
		if err != nil {
			logger.Fatalf("failed to connect to redis: %v", err)
		}
		defer messageFeed.Close()
		feed = messageFeed
	}

	registry := chat.NewRegistry()
	relay := chat.NewRelay(registry, messageStore, feed, logger)
	friendService := friends.NewService(friendStore, userStore)

	srv := handlers.NewServer(logger, userStore, friendService, relay, registry)

	handler := middleware.LogMiddleware(logger)(srv.Routes())

	addr := ":" + cfg.Port
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
