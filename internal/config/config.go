// Package config loads collector configuration from config.yaml and the
// environment and wires the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	DART    DARTConfig    `yaml:"dart" mapstructure:"dart"`
	Data    DataConfig    `yaml:"data" mapstructure:"data"`
	Collect CollectConfig `yaml:"collect" mapstructure:"collect"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// DARTConfig holds DART OpenAPI credentials and endpoints.
type DARTConfig struct {
	APIKey         string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	ViewerBaseURL  string  `yaml:"viewer_base_url" mapstructure:"viewer_base_url"`
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	MaxAttempts    int     `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// DataConfig configures on-disk paths for the corpus, checkpoint, and
// registry cache.
type DataConfig struct {
	Dir                string `yaml:"dir" mapstructure:"dir"`
	RegistryFile       string `yaml:"registry_file" mapstructure:"registry_file"`
	RegistryMaxAgeDays int    `yaml:"registry_max_age_days" mapstructure:"registry_max_age_days"`
	CheckpointFile     string `yaml:"checkpoint_file" mapstructure:"checkpoint_file"`
	CorpusLog          string `yaml:"corpus_log" mapstructure:"corpus_log"`
	CorpusSnapshot     string `yaml:"corpus_snapshot" mapstructure:"corpus_snapshot"`
}

// CollectConfig configures an incremental collection run.
type CollectConfig struct {
	StartDate       string `yaml:"start_date" mapstructure:"start_date"`
	MaxWorkers      int    `yaml:"max_workers" mapstructure:"max_workers"`
	MaxPages        int    `yaml:"max_pages" mapstructure:"max_pages"`
	PageDelayMillis int    `yaml:"page_delay_millis" mapstructure:"page_delay_millis"`
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
	v.SetEnvPrefix("DIVCOLLECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The key is conventionally exported as DART_API_KEY, without the
	// app prefix.
	_ = v.BindEnv("dart.api_key", "DART_API_KEY", "DIVCOLLECT_DART_API_KEY")

	// Defaults
	v.SetDefault("dart.base_url", "https://opendart.fss.or.kr/api")
	v.SetDefault("dart.viewer_base_url", "https://dart.fss.or.kr")
	v.SetDefault("dart.user_agent", "Mozilla/5.0")
	v.SetDefault("dart.timeout_secs", 20)
	v.SetDefault("dart.requests_per_sec", 10)
	v.SetDefault("dart.max_attempts", 5)
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.registry_file", "corp_code.xml")
	v.SetDefault("data.registry_max_age_days", 30)
	v.SetDefault("data.checkpoint_file", "last_seen.json")
	v.SetDefault("data.corpus_log", "dividend_with_text.jsonl")
	v.SetDefault("data.corpus_snapshot", "dividend_with_text.csv")
	v.SetDefault("collect.start_date", "20130101")
	v.SetDefault("collect.max_workers", 10)
	v.SetDefault("collect.max_pages", 10)
	v.SetDefault("collect.page_delay_millis", 100)
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

// Validate checks that required settings are present. A missing API key
// is fatal before any work begins.
func (c *Config) Validate() error {
	if c.DART.APIKey == "" {
		return eris.New("config: DART_API_KEY is not set")
	}
	return nil
}

// RegistryMaxAge returns the registry cache TTL as a duration.
func (c *Config) RegistryMaxAge() time.Duration {
	return time.Duration(c.Data.RegistryMaxAgeDays) * 24 * time.Hour
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
