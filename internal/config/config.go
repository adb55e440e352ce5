package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

// 로컬 개발용 기본 DSN
const defaultDatabaseURL = "host=localhost user=postgres password=postgres dbname=chanban port=5432 sslmode=disable TimeZone=Asia/Seoul"

type Config struct {
	Port          string
	DatabaseURL   string
	JWTSecret     string
	SessionSecret string
	LogLevel      string
	GinMode       string
	RedisURL      string
	CacheTTL      time.Duration
}

// Load 환경 변수에서 설정을 읽는다. .env 로딩은 main 에서 먼저 끝낸다.
func Load() (Config, error) {
	cfg := Config{
		Port:          env("PORT"),
		DatabaseURL:   env("DATABASE_URL"),
		JWTSecret:     env("JWT_SECRET"),
		SessionSecret: env("SESSION_SECRET"),
		LogLevel:      env("LOG_LEVEL"),
		GinMode:       env("GIN_MODE"),
		RedisURL:      env("REDIS_URL"),
		CacheTTL:      30 * time.Second,
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "secret_key_change_me"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if ttl := env("CACHE_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return Config{}, errors.New("CACHE_TTL must be a duration like 30s")
		}
		cfg.CacheTTL = d
	}
	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
