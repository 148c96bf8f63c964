package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Discord   DiscordConfig
	Backtest  BacktestConfig
	DataFill  DataFillConfig
	Scheduler SchedulerConfig
	Logging   LoggingConfig
	Auth      AuthConfig
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database specific configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DiscordConfig holds alert webhook configuration
type DiscordConfig struct {
	WebhookURL string
}

// BacktestConfig holds the cost and risk parameters for backtests
type BacktestConfig struct {
	TransactionCostRate float64
	MaxPositionRatio    float64
	StopLossRatio       float64
	RiskFreeRate        float64
}

// DataFillConfig holds ingestion job configuration
type DataFillConfig struct {
	MaxRetries int
}

// SchedulerConfig holds the background refresh configuration
type SchedulerConfig struct {
	Enabled bool
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// AuthConfig holds service-to-service authentication configuration
type AuthConfig struct {
	ServiceKey string
}

// LoadConfig loads the configuration from file and environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Environment variables override
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "10s")
	v.SetDefault("server.idleTimeout", "120s")

	// Database defaults
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", "30m")

	// Backtest defaults
	v.SetDefault("backtest.transactionCostRate", 0.0015)
	v.SetDefault("backtest.maxPositionRatio", 0.95)
	v.SetDefault("backtest.stopLossRatio", 0.05)
	v.SetDefault("backtest.riskFreeRate", 0.03)

	// Data fill defaults
	v.SetDefault("datafill.maxRetries", 3)

	// Scheduler defaults
	v.SetDefault("scheduler.enabled", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
