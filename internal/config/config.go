package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                 string        `mapstructure:"PORT"`
	Env                  string        `mapstructure:"ENV"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	DBMaxConns           int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns           int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL             string        `mapstructure:"REDIS_URL"`
	JWTSecret            string        `mapstructure:"JWT_SECRET"`
	CORSOrigins          []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS         float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst       int           `mapstructure:"RATE_LIMIT_BURST"`
	AvailabilityCacheTTL time.Duration `mapstructure:"AVAILABILITY_CACHE_TTL"`
	SlotMinutes          int           `mapstructure:"SLOT_MINUTES"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("AVAILABILITY_CACHE_TTL", "30s")
	v.SetDefault("SLOT_MINUTES", 30)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"REDIS_URL", "JWT_SECRET", "CORS_ORIGINS",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "AVAILABILITY_CACHE_TTL",
		"SLOT_MINUTES",
	} {
		v.BindEnv(key)
	}

	// Try reading .env, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. Outside
// development a JWT secret is required so authentication is enforced.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV=%q", c.Env)
	}
	if c.SlotMinutes <= 0 || c.SlotMinutes > 60 {
		return fmt.Errorf("SLOT_MINUTES must be between 1 and 60, got %d", c.SlotMinutes)
	}
	if c.AvailabilityCacheTTL < 0 {
		return fmt.Errorf("AVAILABILITY_CACHE_TTL must not be negative")
	}
	return nil
}
