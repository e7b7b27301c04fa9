package contextualize

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/contextualize/core/config"
	"github.com/dmitrymomot/contextualize/core/handler"
)

// Config holds engine configuration with environment variable support.
type Config struct {
	Properties []string `env:"CONTEXTUALIZE_PROPERTIES" envSeparator:","`
	Label      string   `env:"CONTEXTUALIZE_LABEL" envDefault:"context"`
	Strict     bool     `env:"CONTEXTUALIZE_STRICT" envDefault:"false"`
	IDPrefix   string   `env:"CONTEXTUALIZE_ID_PREFIX" envDefault:"anon_"`
}

// NewFromConfig creates an engine from cfg. Options override config values.
func NewFromConfig[C handler.Context](cfg Config, opts ...Option) (*Engine[C], error) {
	o := Options{
		Properties: cfg.Properties,
		Label:      cfg.Label,
		Strict:     cfg.Strict,
	}
	if cfg.IDPrefix != "" {
		o.Generator = Sequence(cfg.IDPrefix)
	}
	return New[C](o, opts...)
}

// NewFromEnv loads Config from the environment and creates an engine.
func NewFromEnv[C handler.Context](opts ...Option) (*Engine[C], error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	return NewFromConfig[C](cfg, opts...)
}

// NewFromYAML creates an engine from a YAML document holding any input form
// Normalize accepts: a property name, a list of names, or a mapping with
// the keys "properties", "context" and "strict".
//
//	properties: [user, session]
//	context: scope
//	strict: true
func NewFromYAML[C handler.Context](data []byte, opts ...Option) (*Engine[C], error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return New[C](doc, opts...)
}
