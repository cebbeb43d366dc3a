package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config holds the tunables of the detection and parsing pipeline.
// Values come from struct defaults, then an optional labdata.yml in the
// working directory, then LABDATA_* environment variables.
type Config struct {
	Detection DetectionConfig `yaml:"detection" envconfig:"DETECTION"`
	Parsing   ParsingConfig   `yaml:"parsing" envconfig:"PARSING"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
}

// DetectionConfig bounds how much of a file a handler may inspect
// during Detect. Detection must stay sublinear in file size.
type DetectionConfig struct {
	ScanRows  int   `yaml:"scan_rows" envconfig:"SCAN_ROWS" default:"15" validate:"gte=1"`
	ScanBytes int64 `yaml:"scan_bytes" envconfig:"SCAN_BYTES" default:"65536" validate:"gte=512"`
}

// ParsingConfig controls the heuristics used while locating the data
// block and resolving the time axis.
type ParsingConfig struct {
	// HeaderSearchRows is how deep Parse hunts for the header row when a
	// variable-length metadata block precedes the data.
	HeaderSearchRows int `yaml:"header_search_rows" envconfig:"HEADER_SEARCH_ROWS" default:"30" validate:"gte=1"`
	// NumericRowRatio is the share of non-empty cells in a row that must
	// parse as numbers for the row to count as data.
	NumericRowRatio float64 `yaml:"numeric_row_ratio" envconfig:"NUMERIC_ROW_RATIO" default:"0.5" validate:"gt=0,lte=1"`
	// TimeParseRatio is the share of non-missing cells that must parse
	// for a time-coercion method to win.
	TimeParseRatio float64 `yaml:"time_parse_ratio" envconfig:"TIME_PARSE_RATIO" default:"0.9" validate:"gt=0,lte=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"text" validate:"oneof=text json"`
}

const configFile = "labdata.yml"

// Default returns the built-in configuration. The values mirror the
// struct tag defaults and are kept in sync by TestDefault.
func Default() *Config {
	return &Config{
		Detection: DetectionConfig{
			ScanRows:  15,
			ScanBytes: 65536,
		},
		Parsing: ParsingConfig{
			HeaderSearchRows: 30,
			NumericRowRatio:  0.5,
			TimeParseRatio:   0.9,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, the optional config
// file, and LABDATA_* environment variables, then validates it.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("LABDATA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	return cfg, nil
}

// mergeConfigs overlays explicitly-set environment values on top of the
// file configuration. Environment wins wherever it differs from the
// built-in defaults.
func mergeConfigs(file, env Config) Config {
	def := Default()
	out := file

	if env.Detection.ScanRows != def.Detection.ScanRows {
		out.Detection.ScanRows = env.Detection.ScanRows
	}
	if env.Detection.ScanBytes != def.Detection.ScanBytes {
		out.Detection.ScanBytes = env.Detection.ScanBytes
	}
	if env.Parsing.HeaderSearchRows != def.Parsing.HeaderSearchRows {
		out.Parsing.HeaderSearchRows = env.Parsing.HeaderSearchRows
	}
	if env.Parsing.NumericRowRatio != def.Parsing.NumericRowRatio {
		out.Parsing.NumericRowRatio = env.Parsing.NumericRowRatio
	}
	if env.Parsing.TimeParseRatio != def.Parsing.TimeParseRatio {
		out.Parsing.TimeParseRatio = env.Parsing.TimeParseRatio
	}
	if env.Logging.Level != def.Logging.Level {
		out.Logging.Level = env.Logging.Level
	}
	if env.Logging.Format != def.Logging.Format {
		out.Logging.Format = env.Logging.Format
	}

	return out
}
