package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	BaseDir  string         `yaml:"base_dir" mapstructure:"base_dir"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Prefetch PrefetchConfig `yaml:"prefetch" mapstructure:"prefetch"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Viewer   ViewerConfig   `yaml:"viewer" mapstructure:"viewer"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// HTTPConfig configures the shared HTTP client.
type HTTPConfig struct {
	UserAgent      string `yaml:"user_agent" mapstructure:"user_agent"`
	ConnectTimeout int    `yaml:"connect_timeout_secs" mapstructure:"connect_timeout_secs"`
}

// PrefetchConfig configures the batch scheduler.
type PrefetchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the per-item hard deadline.
func (c PrefetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// CacheConfig configures artifact retention.
type CacheConfig struct {
	RetentionDays int `yaml:"retention_days" mapstructure:"retention_days"`
}

// Retention returns the maximum artifact age before eviction.
func (c CacheConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// SearchConfig configures the search providers.
type SearchConfig struct {
	Provider    string   `yaml:"provider" mapstructure:"provider"`
	MaxResults  int      `yaml:"max_results" mapstructure:"max_results"`
	BraveAPIKey string   `yaml:"brave_api_key" mapstructure:"brave_api_key"`
	SearxURLs   []string `yaml:"searx_urls" mapstructure:"searx_urls"`
}

// ViewerConfig configures how promoted artifacts are opened.
type ViewerConfig struct {
	Editor string `yaml:"editor" mapstructure:"editor"`
}

// EditorCommand resolves the editor binary, falling back to $EDITOR then nvim.
func (c ViewerConfig) EditorCommand() string {
	if c.Editor != "" {
		return c.Editor
	}
	if ed := os.Getenv("EDITOR"); ed != "" {
		return ed
	}
	return "nvim"
}

// ServerConfig configures the status HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("WEBSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("base_dir", defaultBaseDir())
	v.SetDefault("http.user_agent", "Mozilla/5.0 (compatible; websearch-cli/1.0)")
	v.SetDefault("http.connect_timeout_secs", 5)
	v.SetDefault("prefetch.concurrency", 12)
	v.SetDefault("prefetch.timeout_secs", 8)
	v.SetDefault("cache.retention_days", 5)
	v.SetDefault("search.provider", "duckduckgo")
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.searx_urls", []string{
		"https://searx.be",
		"https://searx.tiekoetter.com",
		"https://search.bus-hit.me",
	})
	v.SetDefault("server.port", 8484)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// defaultBaseDir places the cache under the user cache dir when available.
func defaultBaseDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "websearch")
	}
	return "websearch"
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
