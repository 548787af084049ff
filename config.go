package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string // postgres DSN; empty means sqlite
	SQLitePath  string
	JWTSecret   string

	GoogleAPIKey  string // Gemini credential, required for generation
	GeminiModel   string
	LLMTimeout    time.Duration
	YouTubeAPIKey string // optional; without it video refs fall back to search URLs

	CORSOrigins []string
	AppEnv      string
}

// LoadConfig reads .env when present (real deployments set env directly)
// and resolves every knob the service consumes.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    getEnv("SQLITE_PATH", "courses.db"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		GoogleAPIKey:  os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash-latest"),
		LLMTimeout:    time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 90)) * time.Second,
		YouTubeAPIKey: os.Getenv("YOUTUBE_API_KEY"),
		AppEnv:        getEnv("APP_ENV", "prod"),
	}

	for _, origin := range strings.Split(getEnv("CORS_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
