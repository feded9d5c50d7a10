// Package config loads the Viper-backed application configuration and
// builds the logger from it.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/HerbHall/occutrend/internal/forecast"
	"github.com/HerbHall/occutrend/internal/schedule"
)

// Config is the full application configuration.
type Config struct {
	Database DatabaseConfig  `mapstructure:"database"`
	Timezone string          `mapstructure:"timezone"`
	Schedule ScheduleConfig  `mapstructure:"schedule"`
	Forecast forecast.Config `mapstructure:"forecast"`
	Logging  LoggingConfig   `mapstructure:"logging"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ScheduleConfig holds the opening hours for regular weekdays and for
// weekends and public holidays.
type ScheduleConfig struct {
	Weekday schedule.Hours `mapstructure:"weekday"`
	Weekend schedule.Hours `mapstructure:"weekend"`
}

// LoggingConfig controls log level and output format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration from the given file, or searches the
// default locations when path is empty. Environment variables with the
// OCCUTREND_ prefix override file values (OCCUTREND_DATABASE_PATH for
// database.path). A missing config file is fine; defaults apply.
func Load(configPath string) (*Config, *viper.Viper, error) {
	v := viper.New()

	v.SetDefault("database.path", "occutrend.db")
	v.SetDefault("timezone", "Europe/Berlin")
	v.SetDefault("schedule.weekday.open_hour", 6)
	v.SetDefault("schedule.weekday.close_hour", 23)
	v.SetDefault("schedule.weekend.open_hour", 9)
	v.SetDefault("schedule.weekend.close_hour", 21)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	fc := forecast.DefaultConfig()
	v.SetDefault("forecast.enabled", fc.Enabled)
	v.SetDefault("forecast.training_window_days", fc.TrainingWindowDays)
	v.SetDefault("forecast.retrain_interval_hours", fc.RetrainIntervalHours)
	v.SetDefault("forecast.prediction_horizon_hours", fc.PredictionHorizonHours)
	v.SetDefault("forecast.min_samples_for_training", fc.MinSamplesForTraining)
	v.SetDefault("forecast.fallback_on_error", fc.FallbackOnError)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("occutrend")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/occutrend")
	}

	// Environment variable support: OCCUTREND_LOGGING_LEVEL=debug
	v.SetEnvPrefix("OCCUTREND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, v, nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// BuildSchedule constructs the opening-hours schedule from the
// configuration.
func (c *Config) BuildSchedule() (*schedule.Schedule, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	return schedule.New(c.Schedule.Weekday, c.Schedule.Weekend, loc), nil
}
