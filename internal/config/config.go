package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL     string
	ServerAddr      string
	CORSOrigin      string
	AccessTokenTTL  time.Duration
	MetricsUser     string
	MetricsPassword string
}

// defaultAccessTTLMinutes короткий по умолчанию — удобно наблюдать ротацию
const defaultAccessTTLMinutes = 2

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ServerAddr:      getEnv("SERVER_ADDR", ":8080"),
		CORSOrigin:      getEnv("CORS_ORIGIN", "http://localhost:5173"),
		AccessTokenTTL:  time.Duration(getEnvInt("ACCESS_TOKEN_TTL_MINUTES", defaultAccessTTLMinutes)) * time.Minute,
		MetricsUser:     getEnv("METRICS_USER", "metrics"),
		MetricsPassword: os.Getenv("METRICS_PASSWORD"),
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}
