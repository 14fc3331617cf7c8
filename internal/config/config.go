package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config is read once at startup. The PhonePe credentials are
// mandatory; the server refuses to start without them.
type Config struct {
	Port string

	PhonePeClientID      string
	PhonePeClientSecret  string
	PhonePeClientVersion string
	PhonePeEnv           string

	WebhookUsername string
	WebhookPassword string

	// optional; without it order updates are logged only
	DBDSN string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                 getEnv("PORT", "3000"),
		PhonePeClientID:      getEnv("PHONEPE_CLIENT_ID", ""),
		PhonePeClientSecret:  getEnv("PHONEPE_CLIENT_SECRET", ""),
		PhonePeClientVersion: getEnv("PHONEPE_CLIENT_VERSION", "1"),
		PhonePeEnv:           getEnv("PHONEPE_ENV", "SANDBOX"),
		WebhookUsername:      getEnv("PHONEPE_WEBHOOK_USERNAME", ""),
		WebhookPassword:      getEnv("PHONEPE_WEBHOOK_PASSWORD", ""),
		DBDSN:                getEnv("DB_DSN", ""),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
