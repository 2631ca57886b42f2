// Package main is the entry point for the media lending server. It reads
// configuration from the environment, builds the logger, and hands off to
// internal/server.
//
// Environment variables:
//
//	PORT            HTTP port (default 8080)
//	DB_PATH         SQLite database file (default data/medialender.db)
//	JWT_SECRET      HMAC secret for access tokens (required, >= 16 chars)
//	SECURE_COOKIES  "true" to mark auth cookies Secure (default off)
//	SMTP_HOST       reminder relay host (optional; unset → reminders logged)
//	SMTP_PORT       relay port (default 587)
//	SMTP_USERNAME   relay credentials (optional)
//	SMTP_PASSWORD   relay credentials (optional)
//	SMTP_FROM       sender address for reminders
//	REMINDER_HOUR   local hour 0-23 for the daily reminder job (default 8)
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adampos/medialender/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := server.Config{
		Port:          envInt(logger, "PORT", 8080),
		DBPath:        envString("DB_PATH", "data/medialender.db"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		SecureCookies: os.Getenv("SECURE_COOKIES") == "true",
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      envInt(logger, "SMTP_PORT", 587),
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:      envString("SMTP_FROM", "reminders@medialender.local"),
		ReminderHour:  envInt(logger, "REMINDER_HOUR", 8),
	}

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required; generate one with: openssl rand -hex 32")
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(cfg.DBPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(logger *slog.Logger, key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Error("invalid numeric environment variable",
			slog.String("key", key),
			slog.String("value", v),
		)
		os.Exit(1)
	}
	return n
}
