package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"ga4dash/internal/config"
	"ga4dash/internal/container"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing data directory is not fatal: the API reports 503 until the
	// marts appear and /healthz says why.
	if err := appContainer.Warm(ctx); err != nil {
		appContainer.Logger.Warn("[Main] mart data not loaded: %v", err)
	}

	server, err := appContainer.Server()
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	if err := server.Run(ctx, ":"+appConfig.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
