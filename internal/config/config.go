// Package config loads application configuration from config.yaml and
// VISITPLAN_* environment variables, and bootstraps the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Planner PlannerConfig `yaml:"planner" mapstructure:"planner"`
	Dedup   DedupConfig   `yaml:"dedup" mapstructure:"dedup"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite | postgres
	Path        string `yaml:"path" mapstructure:"path"`     // sqlite file path
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PlannerConfig holds the scheduling defaults; every value can be
// overridden per run with a flag.
type PlannerConfig struct {
	VisitsPerDay      int    `yaml:"visits_per_day" mapstructure:"visits_per_day"`
	BusinessDays      int    `yaml:"business_days" mapstructure:"business_days"`
	HomePostcode      string `yaml:"home_postcode" mapstructure:"home_postcode"`
	SearchRadiusMiles int    `yaml:"search_radius_miles" mapstructure:"search_radius_miles"`
	LegacyDistance    bool   `yaml:"legacy_distance" mapstructure:"legacy_distance"`
}

// DedupConfig overrides the dedup classification thresholds.
type DedupConfig struct {
	NameGate           float64 `yaml:"name_gate" mapstructure:"name_gate"`
	AutoMergeScore     float64 `yaml:"auto_merge_score" mapstructure:"auto_merge_score"`
	AutoMergeNameSim   float64 `yaml:"auto_merge_name_sim" mapstructure:"auto_merge_name_sim"`
	ReviewScore        float64 `yaml:"review_score" mapstructure:"review_score"`
	ReviewNameSimFloor float64 `yaml:"review_name_sim_floor" mapstructure:"review_name_sim_floor"`
}

// ServerConfig configures the review API server.
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
	v.SetEnvPrefix("VISITPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "visitplanner.db")
	v.SetDefault("planner.visits_per_day", 6)
	v.SetDefault("planner.business_days", 5)
	v.SetDefault("planner.search_radius_miles", 0)
	v.SetDefault("dedup.name_gate", 0.75)
	v.SetDefault("dedup.auto_merge_score", 0.92)
	v.SetDefault("dedup.auto_merge_name_sim", 0.90)
	v.SetDefault("dedup.review_score", 0.86)
	v.SetDefault("dedup.review_name_sim_floor", 0.80)
	v.SetDefault("server.port", 8080)
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
