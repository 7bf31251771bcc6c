package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// DevJWTSecret используется, если JWT_SECRET_KEY не задан. Только для разработки.
const DevJWTSecret = "dev-only-jwt-secret-do-not-use-in-production"

type Config struct {
	// Server
	Port           int      `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`

	// Storage: при пустом DATABASE_URL хранилище в памяти
	DatabaseURL string `env:"DATABASE_URL"`

	// Rate limit: при пустом REDIS_ADDR лимитер в памяти
	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	ChatRateLimit  int           `env:"CHAT_RATE_LIMIT" envDefault:"20"`
	ChatRateWindow time.Duration `env:"CHAT_RATE_WINDOW" envDefault:"1m"`
	// fixed (фиксированное окно) или token (токен-бакет)
	ChatRateStrategy string `env:"CHAT_RATE_STRATEGY" envDefault:"fixed"`

	// Events: при пустом KAFKA_BROKERS события не публикуются
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"answer24.widget-events"`
	// SASL/PLAIN, если задан пользователь
	KafkaUsername string `env:"KAFKA_USERNAME"`
	KafkaPassword string `env:"KAFKA_PASSWORD"`

	// LLM (OpenAI-совместимый API)
	LLMBaseURL string        `env:"LLM_API_URL" envDefault:"http://localhost:1234/v1"`
	LLMAPIKey  string        `env:"LLM_API_KEY"`
	LLMModel   string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMTimeout time.Duration `env:"LLM_API_TIMEOUT" envDefault:"30s"`

	// Admin
	JWTSecret         string `env:"JWT_SECRET_KEY" envDefault:"dev-only-jwt-secret-do-not-use-in-production"`
	AdminEmail        string `env:"ADMIN_EMAIL"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"` // bcrypt
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.ChatRateLimit <= 0 {
		return nil, fmt.Errorf("CHAT_RATE_LIMIT must be positive, got %d", cfg.ChatRateLimit)
	}
	if cfg.ChatRateWindow <= 0 {
		return nil, fmt.Errorf("CHAT_RATE_WINDOW must be positive, got %s", cfg.ChatRateWindow)
	}
	if cfg.ChatRateStrategy != "fixed" && cfg.ChatRateStrategy != "token" {
		return nil, fmt.Errorf("CHAT_RATE_STRATEGY must be fixed or token, got %q", cfg.ChatRateStrategy)
	}
	return cfg, nil
}

// UsesDevJWTSecret сообщает, что секрет JWT не настроен.
func (c *Config) UsesDevJWTSecret() bool {
	return c.JWTSecret == DevJWTSecret
}

// AllowsAllOrigins сообщает, что CORS открыт для всех.
func (c *Config) AllowsAllOrigins() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}
