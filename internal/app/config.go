package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/specialistvlad/ctybind/internal/bind"
	"gopkg.in/yaml.v3"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ScriptPath   string // .hcl file or directory
	ShelfPath    string // sqlite file, ":memory:" or empty for no shelf
	PickleFormat string

	LogFormat string // text, json or auto
	LogLevel  string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ScriptPath == "" {
		return nil, errors.New("ScriptPath is a required configuration field and cannot be empty")
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json", "auto":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text', 'json' or 'auto'", cfg.LogFormat)
	}

	format, err := bind.ParseFormat(cfg.PickleFormat)
	if err != nil {
		return nil, err
	}
	cfg.PickleFormat = string(format)

	return &cfg, nil
}

// fileConfig is the YAML layout of a config file.
type fileConfig struct {
	Script       string `yaml:"script"`
	Shelf        string `yaml:"shelf"`
	PickleFormat string `yaml:"pickle_format"`
	Log          struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// LoadConfigFile reads a YAML config file. Unknown keys are an error.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var fc fileConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		return Config{}, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return Config{
		ScriptPath:   fc.Script,
		ShelfPath:    fc.Shelf,
		PickleFormat: fc.PickleFormat,
		LogFormat:    fc.Log.Format,
		LogLevel:     fc.Log.Level,
	}, nil
}

// Over returns base with every non-empty field of c applied on top.
func (c Config) Over(base Config) Config {
	pick := func(over, under string) string {
		if over != "" {
			return over
		}
		return under
	}
	return Config{
		ScriptPath:   pick(c.ScriptPath, base.ScriptPath),
		ShelfPath:    pick(c.ShelfPath, base.ShelfPath),
		PickleFormat: pick(c.PickleFormat, base.PickleFormat),
		LogFormat:    pick(c.LogFormat, base.LogFormat),
		LogLevel:     pick(c.LogLevel, base.LogLevel),
	}
}
