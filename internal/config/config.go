package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Lending   LendingConfig   `mapstructure:"lending"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// ConnString returns the PostgreSQL URL, preferring an explicit url.
func (c DatabaseConfig) ConnString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"`
}

type LendingConfig struct {
	DefaultDurationDays int    `mapstructure:"default_duration_days"`
	MaxDurationDays     int    `mapstructure:"max_duration_days"`
	FeePerDay           string `mapstructure:"fee_per_day"`
	DefaultBorrowLimit  int32  `mapstructure:"default_borrow_limit"`
}

// Fee parses FeePerDay.
func (c LendingConfig) Fee() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(c.FeePerDay)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid lending.fee_per_day %q: %w", c.FeePerDay, err)
	}
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("lending.fee_per_day must not be negative")
	}
	return fee, nil
}

type AnalyticsConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type RateLimitConfig struct {
	LendingRequests int           `mapstructure:"lending_requests"`
	Window          time.Duration `mapstructure:"window"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.lending")
	v.AddConfigPath("/etc/lending")

	v.SetEnvPrefix("LENDING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		v.Set("database.url", dbURL)
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		v.Set("redis.url", redisURL)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "lending")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "lending:events")
	v.SetDefault("lending.default_duration_days", 14)
	v.SetDefault("lending.max_duration_days", 90)
	v.SetDefault("lending.fee_per_day", "1.00")
	v.SetDefault("lending.default_borrow_limit", 5)
	v.SetDefault("analytics.cache_ttl", 60*time.Second)
	v.SetDefault("rate_limit.lending_requests", 30)
	v.SetDefault("rate_limit.window", time.Minute)
}

// Validate checks the values the services cannot run without.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	if c.Lending.DefaultDurationDays <= 0 {
		return fmt.Errorf("lending.default_duration_days must be positive")
	}
	if c.Lending.MaxDurationDays < c.Lending.DefaultDurationDays {
		return fmt.Errorf("lending.max_duration_days must be at least default_duration_days")
	}
	if c.Lending.DefaultBorrowLimit <= 0 {
		return fmt.Errorf("lending.default_borrow_limit must be positive")
	}
	if _, err := c.Lending.Fee(); err != nil {
		return err
	}
	return nil
}
