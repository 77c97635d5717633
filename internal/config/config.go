package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	Port        string `mapstructure:"PORT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// External store configuration
	StoreDriver             string `mapstructure:"STORE_DRIVER"`
	FirebaseDatabaseURL     string `mapstructure:"FIREBASE_DATABASE_URL"`
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	StoreTimeoutSec         int    `mapstructure:"STORE_TIMEOUT_SEC"`
	StorePollIntervalSec    int    `mapstructure:"STORE_POLL_INTERVAL_SEC"`

	// JWT configuration
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	JWTExpiryHours int    `mapstructure:"JWT_EXPIRY_HOURS"`

	// CORS configuration
	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`
}

// Load reads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	setDefaults()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate required fields
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("PORT", "7008")
	viper.SetDefault("LOG_LEVEL", "info")

	// Store defaults: the in-memory driver keeps local development and
	// tests independent of a hosted Realtime Database instance
	viper.SetDefault("STORE_DRIVER", "memory")
	viper.SetDefault("FIREBASE_DATABASE_URL", "")
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	viper.SetDefault("STORE_TIMEOUT_SEC", 30)
	viper.SetDefault("STORE_POLL_INTERVAL_SEC", 5)

	// JWT defaults
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 72)

	// CORS defaults
	viper.SetDefault("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:8081"})
}

func validate(config *Config) error {
	if config.Environment == "production" {
		if config.JWTSecret == "your-secret-key-change-in-production" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
	}

	switch config.StoreDriver {
	case "memory":
	case "firebase":
		if config.FirebaseDatabaseURL == "" {
			return fmt.Errorf("FIREBASE_DATABASE_URL is required for the firebase store driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", config.StoreDriver)
	}

	if config.StoreTimeoutSec <= 0 {
		return fmt.Errorf("STORE_TIMEOUT_SEC must be positive")
	}

	return nil
}

// StoreTimeout returns the timeout applied to every external store call
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutSec) * time.Second
}

// StorePollInterval returns the polling interval for store subscriptions
func (c *Config) StorePollInterval() time.Duration {
	return time.Duration(c.StorePollIntervalSec) * time.Second
}

// JWTExpiry returns the lifetime of issued session tokens
func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpiryHours) * time.Hour
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
