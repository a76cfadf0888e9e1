// Package config holds run settings for the apconst command. Values come
// from defaults, then an optional TOML or YAML file, then command-line flags.
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/lukaszgryglicki/apconst"
	"github.com/lukaszgryglicki/apconst/report"
)

// Config holds the settings of one run
type Config struct {
	Digits   int      `toml:"digits" yaml:"digits" validate:"gte=1,lte=1000000"`
	Workers  int      `toml:"workers" yaml:"workers" validate:"gte=0,lte=1024"`
	LogLevel string   `toml:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	Format   string   `toml:"format" yaml:"format" validate:"oneof=text yaml"`
	Color    bool     `toml:"color" yaml:"color"`
	Width    int      `toml:"width" yaml:"width" validate:"gte=0,lte=1000"`
	Catalogs []string `toml:"catalogs" yaml:"catalogs" validate:"dive,required"`
}

// Default returns the settings used when nothing else is given.
func Default() Config {
	return Config{
		Digits:   50,
		Workers:  1,
		LogLevel: "warn",
		Format:   "text",
	}
}

var validate = validator.New()

// Load reads path over the defaults. The format follows the extension.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, configErr(path, "%v", err)
	}
	cfg, err := Parse(data, report.FormatOf(path))
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte, format report.Format) (Config, error) {
	cfg := Default()
	switch format {
	case report.FormatTOML:
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
		if err != nil {
			return Config{}, configErr("", "TOML: %v", err)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return Config{}, configErr("", "unknown key %q", undec[0].String())
		}
	case report.FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// an empty document keeps the defaults
		if err := dec.Decode(&cfg); err != nil && len(bytes.TrimSpace(data)) > 0 {
			return Config{}, configErr("", "YAML: %v", err)
		}
	default:
		return Config{}, configErr("", "unsupported format %q", format)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return configErr("", "%v", err)
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return l
}

// Precision returns the working precision.
func (c Config) Precision() (apconst.Precision, error) {
	return apconst.NewPrecision(c.Digits)
}

func configErr(name, format string, args ...any) error {
	return &apconst.Error{Kind: apconst.ErrConfiguration, Op: "load config", Name: name, Err: fmt.Errorf(format, args...)}
}
