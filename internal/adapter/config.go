package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nepalihub/portal/internal/domain"
)

// EnvPrefix prefixes environment overrides, e.g. PORTAL_CATALOG_API_KEY
const EnvPrefix = "PORTAL"

// Config holds all application configuration
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Player  PlayerConfig  `mapstructure:"player"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// BackendConfig holds the community API connection
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CatalogConfig holds the video catalog credentials
type CatalogConfig struct {
	APIKey    string `mapstructure:"api_key"`
	ChannelID string `mapstructure:"channel_id"`
	BaseURL   string `mapstructure:"base_url"`
	PageSize  int    `mapstructure:"page_size"`
}

// CacheConfig holds the session store and catalog page cache settings
type CacheConfig struct {
	Dir           string        `mapstructure:"dir"` // empty keeps everything in memory
	TTL           time.Duration `mapstructure:"ttl"`
	RedisAddr     string        `mapstructure:"redis_addr"` // optional shared page cache
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

// PlayerConfig holds the external video player
type PlayerConfig struct {
	Command string   `mapstructure:"command"` // empty opens the browser
	Args    []string `mapstructure:"args"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000/api/v1",
			Timeout: 30 * time.Second,
		},
		Catalog: CatalogConfig{
			BaseURL:  "https://www.googleapis.com/youtube/v3",
			PageSize: 9,
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
			TTL: 15 * time.Minute,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "portal", "portal.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "portal", "portal.log")
	}
}

// DefaultConfigDir returns the default config directory for the current OS
func DefaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "portal")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "portal")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "portal", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "portal", "cache")
	}
}

// setDefaults registers every key so env overrides apply even when the
// config file omits them.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("backend.base_url", cfg.Backend.BaseURL)
	v.SetDefault("backend.timeout", cfg.Backend.Timeout)
	v.SetDefault("catalog.api_key", cfg.Catalog.APIKey)
	v.SetDefault("catalog.channel_id", cfg.Catalog.ChannelID)
	v.SetDefault("catalog.base_url", cfg.Catalog.BaseURL)
	v.SetDefault("catalog.page_size", cfg.Catalog.PageSize)
	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("cache.redis_addr", cfg.Cache.RedisAddr)
	v.SetDefault("cache.redis_password", cfg.Cache.RedisPassword)
	v.SetDefault("cache.redis_db", cfg.Cache.RedisDB)
	v.SetDefault("player.command", cfg.Player.Command)
	v.SetDefault("player.args", cfg.Player.Args)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// LoadConfig loads configuration from file and environment. An explicit
// path must exist; otherwise config.yaml is looked up in the config
// directory and the working directory, and a missing file is fine.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultConfigDir())
		v.AddConfigPath(".")
	}

	// Environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Logging.File = expandHome(cfg.Logging.File)
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	return cfg, nil
}

// ValidateCatalog reports missing catalog credentials as a configuration error
func (c *Config) ValidateCatalog() error {
	var missing []string
	if strings.TrimSpace(c.Catalog.APIKey) == "" {
		missing = append(missing, "catalog.api_key")
	}
	if strings.TrimSpace(c.Catalog.ChannelID) == "" {
		missing = append(missing, "catalog.channel_id")
	}
	if len(missing) > 0 {
		return domain.NewError(domain.KindConfig, "config",
			"missing "+strings.Join(missing, ", ")+" (set in config.yaml or "+EnvPrefix+"_CATALOG_* env)")
	}
	return nil
}

// ValidateBackend reports a missing backend URL as a configuration error
func (c *Config) ValidateBackend() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return domain.NewError(domain.KindConfig, "config", "missing backend.base_url")
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
