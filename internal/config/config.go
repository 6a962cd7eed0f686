package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Report   ReportConfig
	UI       UIConfig
	Log      LogConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// ReportConfig holds aggregation settings.
type ReportConfig struct {
	// MonthStartDay is the day a new accounting month begins. Keep it
	// between 1 and 28 so every month has the boundary day.
	MonthStartDay int `mapstructure:"month_start_day"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Currency   string
	DateFormat string `mapstructure:"date_format"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// Load reads configuration from file and env. Env var overrides use prefix SPENDLOG_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "spendlog", "spendlog.db"))
	v.SetDefault("report.month_start_day", 25)
	v.SetDefault("ui.currency", "CHF")
	v.SetDefault("ui.date_format", "02.01.2006")
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("SPENDLOG_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "spendlog"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("SPENDLOG")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Report.MonthStartDay < 1 || c.Report.MonthStartDay > 28 {
		return Config{}, fmt.Errorf("report.month_start_day must be between 1 and 28, got %d", c.Report.MonthStartDay)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory
// if needed.
func Save(cfg Config) error {
	path := os.Getenv("SPENDLOG_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "spendlog", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("report.month_start_day", cfg.Report.MonthStartDay)
	v.Set("ui.currency", cfg.UI.Currency)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("log.level", cfg.Log.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
