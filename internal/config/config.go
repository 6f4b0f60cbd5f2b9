// Package config loads application configuration from file and environment.
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
	Records   RecordsConfig   `yaml:"records" mapstructure:"records"`
	Places    PlacesConfig    `yaml:"places" mapstructure:"places"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Runlog    RunlogConfig    `yaml:"runlog" mapstructure:"runlog"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// RecordsConfig configures the premises database backend.
type RecordsConfig struct {
	// Driver is one of postgres, sqlite, or fixture.
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// PlacesConfig holds Google Maps API settings.
type PlacesConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Offline        bool    `yaml:"offline" mapstructure:"offline"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	HaikuModel  string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
	// ConfidenceModel and OccupancyModel select the model per scoring role.
	// They default to SonnetModel and HaikuModel respectively.
	ConfidenceModel string `yaml:"confidence_model" mapstructure:"confidence_model"`
	OccupancyModel  string `yaml:"occupancy_model" mapstructure:"occupancy_model"`
}

// PipelineConfig configures duplicate detection and candidate filtering.
type PipelineConfig struct {
	ConfidenceThreshold     int     `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	SearchRadiusDegrees     float64 `yaml:"search_radius_degrees" mapstructure:"search_radius_degrees"`
	PlaceMaxDistanceDegrees float64 `yaml:"place_max_distance_degrees" mapstructure:"place_max_distance_degrees"`
}

// OutputConfig configures the export file locations.
type OutputConfig struct {
	Dir            string `yaml:"dir" mapstructure:"dir"`
	ProcessedFile  string `yaml:"processed_file" mapstructure:"processed_file"`
	ErrorsFile     string `yaml:"errors_file" mapstructure:"errors_file"`
	DuplicatesFile string `yaml:"duplicates_file" mapstructure:"duplicates_file"`
}

// RunlogConfig configures the local run audit log.
type RunlogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
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
	v.SetEnvPrefix("PREMISES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("records.driver", "postgres")
	v.SetDefault("records.sqlite_path", "premises.db")
	v.SetDefault("places.base_url", "https://maps.googleapis.com/maps/api")
	v.SetDefault("places.requests_per_sec", 10)
	v.SetDefault("places.timeout_secs", 15)
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	// Registered empty so environment overrides bind; Load fills them from
	// the tier models when unset.
	v.SetDefault("anthropic.confidence_model", "")
	v.SetDefault("anthropic.occupancy_model", "")
	v.SetDefault("pipeline.confidence_threshold", 8)
	v.SetDefault("pipeline.search_radius_degrees", 0.001)
	v.SetDefault("pipeline.place_max_distance_degrees", 0.05)
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.processed_file", "processed_premises.csv")
	v.SetDefault("output.errors_file", "errors.csv")
	v.SetDefault("output.duplicates_file", "duplicates.csv")
	v.SetDefault("runlog.path", "premises-runs.db")
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

	// The per-role models default from the tier models unless overridden.
	if cfg.Anthropic.ConfidenceModel == "" {
		cfg.Anthropic.ConfidenceModel = cfg.Anthropic.SonnetModel
	}
	if cfg.Anthropic.OccupancyModel == "" {
		cfg.Anthropic.OccupancyModel = cfg.Anthropic.HaikuModel
	}

	return &cfg, nil
}

// Validate checks that the configuration can support the given command mode.
// All problems are reported at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	checkPipeline := func() {
		if c.Pipeline.ConfidenceThreshold < 1 || c.Pipeline.ConfidenceThreshold > 10 {
			problems = append(problems, "pipeline.confidence_threshold must be between 1 and 10")
		}
		if c.Pipeline.SearchRadiusDegrees <= 0 {
			problems = append(problems, "pipeline.search_radius_degrees must be > 0")
		}
		if c.Pipeline.PlaceMaxDistanceDegrees <= 0 {
			problems = append(problems, "pipeline.place_max_distance_degrees must be > 0")
		}
	}
	checkRecords := func() {
		switch c.Records.Driver {
		case "postgres":
			if c.Records.DatabaseURL == "" {
				problems = append(problems, "records.database_url is required for the postgres driver")
			}
		case "sqlite":
			if c.Records.SQLitePath == "" {
				problems = append(problems, "records.sqlite_path is required for the sqlite driver")
			}
		case "fixture":
		default:
			problems = append(problems, "records.driver must be postgres, sqlite, or fixture")
		}
	}

	switch mode {
	case "process":
		checkPipeline()
		checkRecords()
		if !c.Places.Offline {
			if c.Places.Key == "" {
				problems = append(problems, "places.key is required")
			}
			if c.Anthropic.Key == "" {
				problems = append(problems, "anthropic.key is required")
			}
		}
	case "dbcheck":
		checkRecords()
	case "verify":
		checkPipeline()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
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
