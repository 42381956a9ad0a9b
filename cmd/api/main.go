package main

import (
	"context"
	"os"

	"github.com/yigit/storetrainer/internal/bootstrap"
	"github.com/yigit/storetrainer/internal/pkg/logger"
	"github.com/yigit/storetrainer/internal/server"
)

// @title Store Trainer API
// @version 1.0
// @description Sales training backend: practice conversations with AI personas, evaluations, community cases and sales events

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer(context.Background(), bootstrap.ConfigPath())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
