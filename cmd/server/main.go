package main

import (
	"os"

	_ "photobook/docs"
	"photobook/internal/config"
	"photobook/internal/logger"
	"photobook/internal/server"
)

// @title           Photobook API
// @version         1.0
// @description     API for collaborative photobook editing: books, pages, questions, answers and collaborators.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg := config.Load()
	log := logger.New(logger.Config{
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})

	s, err := server.Init(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("server initialization failed")
		os.Exit(1)
	}

	if err := s.Run(); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
