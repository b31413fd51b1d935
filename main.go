package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"go.uber.org/zap"

	"realty-system/api"
	"realty-system/auth"
	"realty-system/config"
	"realty-system/database"
	"realty-system/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	zl := logger.New(cfg.Environment)
	defer zl.Sync()

	zl.Info("connecting to database")
	db, err := database.Connect(cfg.PostgresDSN)
	if err != nil {
		zl.Fatal("database connect", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		zl.Fatal("database migrate", zap.Error(err))
	}

	service := api.NewAPI(db, zl, auth.NewTokens(cfg.JWTSecret), cfg.UploadDir)
	service.RegisterRoutes()

	zl.Info("server starting", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), service.Handler()); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}
