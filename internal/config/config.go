package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. Every path and switch
// has a source-time default, so a bare run with no config file and no
// environment reproduces the canonical pipeline layout.
type Config struct {
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Codebook CodebookConfig `yaml:"codebook" mapstructure:"codebook"`
	Report   ReportConfig   `yaml:"report" mapstructure:"report"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the raw export and the cleaned dataset.
type DataConfig struct {
	RawPath     string `yaml:"raw_path" mapstructure:"raw_path"`
	CleanedPath string `yaml:"cleaned_path" mapstructure:"cleaned_path"`
}

// CodebookConfig optionally overrides the embedded codebook.
type CodebookConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ReportConfig configures report outputs.
type ReportConfig struct {
	ChartDir string `yaml:"chart_dir" mapstructure:"chart_dir"`
}

// StoreConfig configures report-run persistence.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
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
	v.SetEnvPrefix("NFCS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.raw_path", "NFCS 2012 State Data 130503.csv")
	v.SetDefault("data.cleaned_path", "cleaned_data_2012/cleaned_NFCS_2012.csv")
	v.SetDefault("codebook.path", "")
	v.SetDefault("report.chart_dir", ".")
	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", "nfcs_reports.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

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
