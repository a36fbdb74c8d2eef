package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Env       string          `yaml:"env"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig holds redis configuration for the token denylist
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpiryDays int    `yaml:"expiry_days"`
}

// RateLimitConfig holds request throttling configuration. The auth limits
// cover register and login; the api limits cover the whole HTTP surface.
type RateLimitConfig struct {
	AuthMax           int64 `yaml:"auth_max"`
	AuthWindowMinutes int   `yaml:"auth_window_minutes"`
	APIMax            int64 `yaml:"api_max"`
	APIWindowMinutes  int   `yaml:"api_window_minutes"`
}

// AuthWindow returns the auth throttling window as a duration
func (c *RateLimitConfig) AuthWindow() time.Duration {
	return time.Duration(c.AuthWindowMinutes) * time.Minute
}

// APIWindow returns the general throttling window as a duration
func (c *RateLimitConfig) APIWindow() time.Duration {
	return time.Duration(c.APIWindowMinutes) * time.Minute
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.JWT.ExpiryDays == 0 {
		cfg.JWT.ExpiryDays = 7
	}
	if cfg.RateLimit.AuthMax == 0 {
		cfg.RateLimit.AuthMax = 5
	}
	if cfg.RateLimit.AuthWindowMinutes == 0 {
		cfg.RateLimit.AuthWindowMinutes = 15
	}
	if cfg.RateLimit.APIMax == 0 {
		cfg.RateLimit.APIMax = 100
	}
	if cfg.RateLimit.APIWindowMinutes == 0 {
		cfg.RateLimit.APIWindowMinutes = 15
	}

	return &cfg, nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// IsDevelopment reports whether the app runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
