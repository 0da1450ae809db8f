package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ogulcanaydogan/pool-watch/pkg/model"
)

// EnvPrefix prefixes every environment variable, e.g. POOLWATCH_API_BASE_URL.
const EnvPrefix = "POOLWATCH"

// Config holds all Pool Watch configuration. It is resolved once at startup
// and not modified afterwards.
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Chains     ChainsConfig     `mapstructure:"chains"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// APIConfig defines the pools analytics API.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	ChainIDs  []string      `mapstructure:"chain_ids"`
	PageCount int           `mapstructure:"page_count"`
	PageSize  int           `mapstructure:"page_size"`
	PageDelay time.Duration `mapstructure:"page_delay"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ThresholdsConfig defines the per-metric minimums.
type ThresholdsConfig struct {
	MinAPR     float64 `mapstructure:"min_apr"`
	MinEarnFee float64 `mapstructure:"min_earn_fee"`
	MinVolume  float64 `mapstructure:"min_volume"`
}

// NotifyConfig defines the webhook and re-notification policy.
type NotifyConfig struct {
	WebhookURL  string  `mapstructure:"webhook_url"`
	Format      string  `mapstructure:"format"`
	Secret      string  `mapstructure:"secret"`
	CooldownMS  int64   `mapstructure:"cooldown_ms"`
	GrowthRatio float64 `mapstructure:"growth_ratio"`
}

// StorageConfig defines where state and history live.
type StorageConfig struct {
	StatePath   string `mapstructure:"state_path"`
	HistoryPath string `mapstructure:"history_path"`
}

// ScheduleConfig defines when cycles run.
type ScheduleConfig struct {
	Spec string `mapstructure:"spec"`
}

// ChainsConfig points at an optional chain metadata file.
type ChainsConfig struct {
	File string `mapstructure:"file"`
}

// ServerConfig defines the inspection HTTP server. Empty Listen disables it.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Cooldown returns the re-notification window.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Notify.CooldownMS) * time.Millisecond
}

// ModelThresholds converts the threshold section for the filter.
func (c *Config) ModelThresholds() model.Thresholds {
	return model.Thresholds{
		MinAPR:     c.Thresholds.MinAPR,
		MinEarnFee: c.Thresholds.MinEarnFee,
		MinVolume:  c.Thresholds.MinVolume,
	}
}

// Validate checks values that would make a cycle meaningless.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.API.BaseURL) == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.API.PageCount <= 0 {
		errs = append(errs, fmt.Errorf("api.page_count must be positive, got %d", c.API.PageCount))
	}
	if c.API.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("api.page_size must be positive, got %d", c.API.PageSize))
	}
	if c.API.PageDelay < 0 {
		errs = append(errs, fmt.Errorf("api.page_delay must not be negative, got %s", c.API.PageDelay))
	}
	if c.Notify.GrowthRatio < 0 {
		errs = append(errs, fmt.Errorf("notify.growth_ratio must not be negative, got %v", c.Notify.GrowthRatio))
	}
	if strings.TrimSpace(c.Storage.StatePath) == "" {
		errs = append(errs, errors.New("storage.state_path is required"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from an optional file, a .env file in the working
// directory, and environment variables, in increasing order of precedence.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".poolwatch"))
		}
		v.SetConfigName("poolwatch")
		v.SetConfigType("yaml")
	}

	// Defaults
	v.SetDefault("api.base_url", "https://api.pooldata.example/v1")
	v.SetDefault("api.chain_ids", []string{"56"})
	v.SetDefault("api.page_count", 5)
	v.SetDefault("api.page_size", 100)
	v.SetDefault("api.page_delay", "1s")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("thresholds.min_apr", 3000)
	v.SetDefault("thresholds.min_earn_fee", 1000)
	v.SetDefault("thresholds.min_volume", 100000)
	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.format", "lark")
	v.SetDefault("notify.secret", "")
	v.SetDefault("notify.cooldown_ms", 24*60*60*1000)
	v.SetDefault("notify.growth_ratio", 0.2)
	v.SetDefault("storage.state_path", filepath.Join("data", "notified.json"))
	v.SetDefault("storage.history_path", filepath.Join("data", "history.db"))
	v.SetDefault("schedule.spec", "@every 15m")
	v.SetDefault("chains.file", "")
	v.SetDefault("server.listen", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.API.ChainIDs = cleanList(cfg.API.ChainIDs)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// cleanList splits any comma-joined items and drops blanks.
func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
