package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	LogLevel string
	Env      string

	JWTSecret string

	// Remote document store (all persistent state lives there).
	StoreURL string
	PluginID string

	// Realtime pub/sub server HTTP API.
	CentrifugoURL    string
	CentrifugoAPIKey string
	PluginURL        string

	// Notification trigger service; best-effort.
	NotifyURL string

	// Sidebar cache. Empty disables caching.
	RedisURL string
}

func LoadConfig() (*Config, error) {
	// A .env file is a development convenience; absence is fine.
	_ = godotenv.Load()

	return &Config{
		Port:             GetEnv("PORT", "8081"),
		Env:              GetEnv("ENV", "development"),
		LogLevel:         GetEnv("LOG_LEVEL", "info"),
		JWTSecret:        GetEnv("JWT_SECRET", "dev-secret"),
		StoreURL:         GetEnv("STORE_URL", "https://api.zuri.chat"),
		PluginID:         GetEnv("PLUGIN_ID", "6165f520375a4616090b8275"),
		CentrifugoURL:    GetEnv("CENTRIFUGO_URL", "https://realtime.zuri.chat/api"),
		CentrifugoAPIKey: GetEnv("CENTRIFUGO_API_KEY", ""),
		PluginURL:        GetEnv("PLUGIN_URL", "messaging.zuri.chat"),
		NotifyURL:        GetEnv("NOTIFY_URL", ""),
		RedisURL:         GetEnv("REDIS_URL", ""),
	}, nil
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
