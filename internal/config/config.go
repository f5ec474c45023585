package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DBDSN     string
	JWTSecret string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Generation
	GeminiAPIKey        string
	GeminiModel         string
	GeminiExtraFallback []string

	// Session retention (newest N kept per user after a session completes)
	SessionRetention int

	// Observability ingest
	ObserveEndpoint  string
	ObservePublicKey string
	ObserveSecretKey string
	// Breaker: disable export after this many failures within the window.
	ObserveErrorThreshold int
	ObserveWindowSeconds  int

	// Optional async trace export via queue
	RabbitURL   string
	RabbitQueue string

	// Rate limit on the turn endpoint (requests per user per minute)
	TurnRateLimit int
}

func Load() Config {
	_ = godotenv.Load()

	dsn := getEnv("DB_DSN", "")
	if dsn == "" {
		dsn = "app:apppass@tcp(127.0.0.1:3306)/rankscout?charset=utf8mb4&parseTime=true&loc=Local"
	}

	var extra []string
	if v := getEnv("GEMINI_FALLBACK_MODELS", ""); v != "" {
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				extra = append(extra, m)
			}
		}
	}

	return Config{
		Port:      getEnv("PORT", "8080"),
		DBDSN:     dsn,
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiExtraFallback: extra,

		SessionRetention: getEnvInt("SESSION_RETENTION", 50),

		ObserveEndpoint:       getEnv("OBSERVE_ENDPOINT", ""),
		ObservePublicKey:      getEnv("OBSERVE_PUBLIC_KEY", ""),
		ObserveSecretKey:      getEnv("OBSERVE_SECRET_KEY", ""),
		ObserveErrorThreshold: getEnvInt("OBSERVE_ERROR_THRESHOLD", 5),
		ObserveWindowSeconds:  getEnvInt("OBSERVE_WINDOW_SECONDS", 300),

		RabbitURL:   getEnv("RABBIT_URL", ""),
		RabbitQueue: getEnv("RABBIT_QUEUE", "trace_batches"),

		TurnRateLimit: getEnvInt("TURN_RATE_LIMIT", 20),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
