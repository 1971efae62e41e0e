package config

import (
	"os"
	"strconv"
)

// Config holds all runtime configuration for the service
type Config struct {
	// Server
	Port        string
	Environment string
	Domain      string

	// Escalation
	EscalationThreshold int
	AuthorityWebhookURL string

	// Points awarded per action
	ReportPoints   int
	ResolvedPoints int
	CommentPoints  int
	VotePoints     int

	// SendGrid (direct-email fallback when no webhook is configured)
	SendGridAPIKey    string
	SendGridFromName  string
	SendGridFromEmail string

	// Image verification service
	VerifyURL           string
	VerifyMinConfidence float64
}

// Load reads configuration from environment variables with fallback defaults
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("GO_ENV", "development"),
		Domain:      getEnv("DOMAIN", ""),

		EscalationThreshold: getEnvInt("ESCALATION_THRESHOLD", 5),
		AuthorityWebhookURL: getEnv("AUTHORITY_WEBHOOK_URL", ""),

		ReportPoints:   getEnvInt("POINTS_REPORT", 10),
		ResolvedPoints: getEnvInt("POINTS_RESOLVED", 5),
		CommentPoints:  getEnvInt("POINTS_COMMENT", 2),
		VotePoints:     getEnvInt("POINTS_VOTE", 1),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "CivicVoice"),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),

		VerifyURL:           getEnv("IMAGE_VERIFY_URL", ""),
		VerifyMinConfidence: getEnvFloat("IMAGE_VERIFY_MIN_CONFIDENCE", 0.6),
	}
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
