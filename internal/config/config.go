package config

import (
	"fmt"
	"strings"

	"github.com/agrirent/service-booking/internal/common/config"
)

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port               string
	AppEnv             string
	DBConfig           config.DatabaseConfig
	JWTConfig          config.JWTConfig
	KafkaConfig        config.KafkaConfig
	RedisConfig        config.RedisConfig
	RateLimitPerMinute int
	GlobalRPS          float64
	FrontendURLs       []string
	MigrationsPath     string
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("BOOKING")
	if err != nil {
		return nil, err
	}

	v.SetDefault("SERVICE_PORT", "8004")
	v.SetDefault("DB_NAME", "agrirent_booking")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 30)
	v.SetDefault("GLOBAL_RPS", 50)
	v.SetDefault("MIGRATIONS_PATH", "migrations")

	origins := []string{"http://localhost:5173", "http://localhost:3000"}
	for _, o := range strings.Split(v.GetString("FRONTEND_URL"), ",") {
		if o = strings.TrimSpace(o); o != "" && !contains(origins, o) {
			origins = append(origins, o)
		}
	}

	cfg := &ServiceConfig{
		Port:               config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:             config.GetAppEnv(v),
		DBConfig:           config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:          config.LoadJWTConfig(v),
		KafkaConfig:        config.LoadKafkaConfig(v),
		RedisConfig:        config.LoadRedisConfig(v),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		GlobalRPS:          v.GetFloat64("GLOBAL_RPS"),
		FrontendURLs:       origins,
		MigrationsPath:     v.GetString("MIGRATIONS_PATH"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

const devJWTSecret = "agrirent-dev-secret"

// Validate rejects configurations the service cannot start with.
func (c *ServiceConfig) Validate() error {
	if c.JWTConfig.Secret == "" {
		if c.AppEnv != "development" {
			return fmt.Errorf("JWT_SECRET is required outside development")
		}
		c.JWTConfig.Secret = devJWTSecret
	}
	if c.AppEnv == "production" && len(c.JWTConfig.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	if len(c.KafkaConfig.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMinute)
	}
	if c.GlobalRPS <= 0 {
		return fmt.Errorf("GLOBAL_RPS must be positive, got %v", c.GlobalRPS)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
