package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	PostgresDSN string
	Port        string
	JWTSecret   string
	Environment string
	UploadDir   string
}

// Load reads configuration from a .env file (if present) and the
// environment. POSTGRES_DSN and JWT_SECRET are required.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := &Config{
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		Port:        os.Getenv("PORT"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Environment: os.Getenv("ENV"),
		UploadDir:   os.Getenv("UPLOAD_DIR"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads/listings"
	}

	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required but not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	return cfg, nil
}
