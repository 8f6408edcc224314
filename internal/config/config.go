package config

import (
	"os"
)

type Config struct {
	// Database
	DatabaseURL string

	// Redis (conversation session store)
	RedisURL string

	// AI inference (timezone fallback)
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Twilio WhatsApp delivery
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string

	// Scheduling
	CronSecret      string
	DefaultTimezone string

	// Server
	Port        string
	Environment string
}

func Load() *Config {
	return &Config{
		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// AI inference
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		// Twilio
		TwilioAccountSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWhatsAppFrom: getEnv("TWILIO_WHATSAPP_FROM", ""),

		// Scheduling
		CronSecret:      getEnv("CRON_SECRET", ""),
		DefaultTimezone: getEnv("DEFAULT_TIMEZONE", "UTC"),

		// Server
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
