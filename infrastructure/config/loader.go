// Package config loads planner configuration from YAML or JSON files
// and turns it into runtime components.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/toolplan/domain/config"
)

// Format represents a configuration file format.
type Format string

const (
	// FormatYAML is the YAML format.
	FormatYAML Format = "yaml"
	// FormatJSON is the JSON format.
	FormatJSON Format = "json"
)

// Loader loads planner configuration.
type Loader struct {
	// ExpandEnv enables ${VAR} expansion.
	ExpandEnv bool
	// StrictEnv fails if a referenced variable is unset.
	StrictEnv bool
	// Overrides applies TOOLPLAN_* environment variables after parsing.
	Overrides bool
	// Validate rejects invalid configurations.
	Validate bool

	lookup func(string) (string, bool)
}

// LoaderOption configures the loader.
type LoaderOption func(*Loader)

// WithEnvExpansion enables or disables environment variable expansion.
func WithEnvExpansion(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.ExpandEnv = enabled
	}
}

// WithStrictEnv enables strict environment variable checking.
func WithStrictEnv(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.StrictEnv = enabled
	}
}

// WithOverrides enables or disables TOOLPLAN_* overrides.
func WithOverrides(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.Overrides = enabled
	}
}

// WithValidation enables or disables configuration validation.
func WithValidation(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.Validate = enabled
	}
}

// WithLookup replaces os.LookupEnv.
func WithLookup(lookup func(string) (string, bool)) LoaderOption {
	return func(l *Loader) {
		l.lookup = lookup
	}
}

// NewLoader creates a loader. Expansion, overrides and validation are on.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		ExpandEnv: true,
		Overrides: true,
		Validate:  true,
		lookup:    os.LookupEnv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile loads configuration from path; the extension selects the format.
func (l *Loader) LoadFile(path string) (*config.PlannerConfig, error) {
	var format Format
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		format = FormatYAML
	case ".json":
		format = FormatJSON
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnsupportedFormat, ext)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	}
	return l.LoadBytes(data, format)
}

// Load loads configuration from r.
func (l *Loader) Load(r io.Reader, format Format) (*config.PlannerConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return l.LoadBytes(data, format)
}

// LoadString loads configuration from a string.
func (l *Loader) LoadString(content string, format Format) (*config.PlannerConfig, error) {
	return l.LoadBytes([]byte(content), format)
}

// LoadBytes parses data, applies defaults and overrides, then validates.
func (l *Loader) LoadBytes(data []byte, format Format) (*config.PlannerConfig, error) {
	if l.ExpandEnv {
		expanded, err := newEnvExpander(l.StrictEnv, l.lookup).Expand(string(data))
		if err != nil {
			return nil, err
		}
		data = []byte(expanded)
	}

	cfg := &config.PlannerConfig{}
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalidFormat, err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalidFormat, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnsupportedFormat, format)
	}

	config.ApplyDefaults(cfg)
	if l.Overrides {
		applyOverrides(cfg, l.lookup)
	}

	if l.Validate {
		if errs := config.NewValidator().Validate(cfg); errs.HasErrors() {
			return nil, fmt.Errorf("%w: %w", config.ErrValidationFailed, errs)
		}
	}
	return cfg, nil
}

// LoadOrDefault loads path, or returns the defaults (with overrides) when
// path is empty.
func (l *Loader) LoadOrDefault(path string) (*config.PlannerConfig, error) {
	if path != "" {
		return l.LoadFile(path)
	}
	return l.LoadString("{}", FormatJSON)
}
