package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
)

// Config collects the environment-driven settings. Values come from the
// process environment, with a .env file loaded on startup (godotenv
// autoload in main.go).
type Config struct {
	Port          string
	AdminPassword string
	SnapshotDB    string

	// SMTP relay for the contact form; email is disabled when the
	// credentials are unset.
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	ToEmail  string
}

func loadConfig() Config {
	cfg := Config{
		Port:          getenv("PORT", "8080"),
		AdminPassword: getenv("ADMIN_PASSWORD", ""),
		SnapshotDB:    getenv("SNAPSHOT_DB", "./folio.db"),
		SMTPHost:      getenv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      getenv("SMTP_PORT", "587"),
		SMTPUser:      getenv("SMTP_USER", ""),
		SMTPPass:      getenv("SMTP_PASS", ""),
		ToEmail:       getenv("TO_EMAIL", ""),
	}

	// Default credentials for development only.
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = "admin123"
		if gin.Mode() == gin.DebugMode {
			log.Println("WARNING: Using default admin password. Set ADMIN_PASSWORD environment variable.")
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
