package config

import (
	"log"
	"os"
	"time"

	"github.com/swelljoe/citywthr/internal/weather"
)

type Config struct {
	AppEnv     string
	Port       string
	DBPath     string
	StaticDir  string
	SessionTTL time.Duration

	OpenWeather struct {
		APIKey  string
		BaseURL string
	}
}

// Load reads configuration from the environment. Call godotenv first if a
// .env file should be honoured.
func Load() *Config {
	c := &Config{}
	c.AppEnv = getEnv("APP_ENV", "development")
	c.Port = getEnv("PORT", "8080")
	c.DBPath = getEnv("DB_PATH", "wthr.db")
	c.StaticDir = getEnv("STATIC_DIR", "static")
	c.SessionTTL = getEnvDuration("SESSION_TTL", 2*time.Hour)

	c.OpenWeather.APIKey = getEnv("OPENWEATHER_API_KEY", "")
	c.OpenWeather.BaseURL = getEnv("OPENWEATHER_BASE_URL", weather.DefaultBaseURL)

	if c.OpenWeather.APIKey == "" {
		log.Println("Warning: OPENWEATHER_API_KEY is not set, every lookup will fail")
	}

	return c
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s %q, using %s", key, v, def)
		return def
	}
	return d
}
