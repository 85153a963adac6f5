package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"forecast-studio/internal/forecast"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Session  SessionConfig  `mapstructure:"session"`
	Data     DataConfig     `mapstructure:"data"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	MaxUploadMB    int           `mapstructure:"max_upload_mb"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// SessionConfig holds browser session configuration
type SessionConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	CookieName string        `mapstructure:"cookie_name"`
}

// DataConfig names the columns every uploaded table must carry
type DataConfig struct {
	CategoryColumn string `mapstructure:"category_column"`
	DateColumn     string `mapstructure:"date_column"`
}

// ForecastConfig holds the metric allow-list and model hyperparameters
type ForecastConfig struct {
	Metrics               []string `mapstructure:"metrics"`
	DefaultPeriods        int      `mapstructure:"default_periods"`
	MaxPeriods            int      `mapstructure:"max_periods"`
	ChangepointPriorScale float64  `mapstructure:"changepoint_prior_scale"`
	SeasonalityPriorScale float64  `mapstructure:"seasonality_prior_scale"`
	UncertaintySamples    int      `mapstructure:"uncertainty_samples"`
	IntervalWidth         float64  `mapstructure:"interval_width"`
	Seed                  uint64   `mapstructure:"seed"`
}

// DatabaseConfig holds defaults for the optional Postgres source
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxRows  int    `mapstructure:"max_rows"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultMetrics is the built-in metric allow-list.
var DefaultMetrics = []string{
	"trips_per_day",
	"total_co2_emission",
	"vehicles_per_day",
	"total_trips",
	"total_amount",
	"farebox_per_day_per_distance",
	"farebox_per_day",
	"unique_drivers",
	"unique_vehicles",
	"avg_trip_distance",
}

// Load reads configuration from file and environment variables. An empty
// path uses defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("FORECAST_STUDIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 50)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:8080"})
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "2m")

	// Session defaults
	v.SetDefault("session.ttl", "2h")
	v.SetDefault("session.cookie_name", "fs_session")

	// Data defaults
	v.SetDefault("data.category_column", "industry")
	v.SetDefault("data.date_column", "date")

	// Forecast defaults
	v.SetDefault("forecast.metrics", DefaultMetrics)
	v.SetDefault("forecast.default_periods", 30)
	v.SetDefault("forecast.max_periods", 365)
	v.SetDefault("forecast.changepoint_prior_scale", 0.04)
	v.SetDefault("forecast.seasonality_prior_scale", 10.0)
	v.SetDefault("forecast.uncertainty_samples", 1000)
	v.SetDefault("forecast.interval_width", 0.8)
	v.SetDefault("forecast.seed", 42)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_rows", 100000)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Server config
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be at least 1")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.read_timeout and server.write_timeout must be positive")
	}

	// Validate Session config
	if c.Session.TTL < time.Minute {
		return fmt.Errorf("session.ttl must be at least 1 minute")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookie_name is required")
	}

	// Validate Data config
	if c.Data.CategoryColumn == "" || c.Data.DateColumn == "" {
		return fmt.Errorf("data.category_column and data.date_column are required")
	}
	if c.Data.CategoryColumn == c.Data.DateColumn {
		return fmt.Errorf("data.category_column and data.date_column must differ")
	}

	// Validate Forecast config
	if len(c.Forecast.Metrics) == 0 {
		return fmt.Errorf("forecast.metrics must contain at least one metric")
	}
	if c.Forecast.MaxPeriods < 1 || c.Forecast.MaxPeriods > 365 {
		return fmt.Errorf("forecast.max_periods must be between 1 and 365")
	}
	if c.Forecast.DefaultPeriods < 1 || c.Forecast.DefaultPeriods > c.Forecast.MaxPeriods {
		return fmt.Errorf("forecast.default_periods must be between 1 and forecast.max_periods")
	}
	if err := c.Forecast.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("forecast: %w", err)
	}

	// Validate Database config
	if c.Database.MaxRows < 1 {
		return fmt.Errorf("database.max_rows must be at least 1")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// EngineConfig builds the forecasting model configuration, including the
// custom "monthly" term (period 12, two harmonics).
func (f ForecastConfig) EngineConfig() *forecast.Config {
	cfg := forecast.DefaultConfig()
	cfg.ChangepointPriorScale = f.ChangepointPriorScale
	cfg.SeasonalityPriorScale = f.SeasonalityPriorScale
	cfg.UncertaintySamples = f.UncertaintySamples
	cfg.IntervalWidth = f.IntervalWidth
	cfg.Seed = f.Seed
	cfg.AddSeasonality("monthly", 12, 2)
	return cfg
}

// MaxUploadBytes returns the upload limit in bytes.
func (s ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}
