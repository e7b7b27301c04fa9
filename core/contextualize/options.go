package contextualize

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/dmitrymomot/contextualize/core/logger"
)

// DefaultLabel is the label a namespace is stored under when none is configured.
const DefaultLabel = "context"

// DefaultIDPrefix prefixes identifiers generated for anonymous handlers.
const DefaultIDPrefix = "anon_"

// Options is the canonical engine configuration.
type Options struct {
	// Properties lists the request properties to isolate. Required.
	Properties []string
	// Label names the namespace in logs and keys (default: "context").
	Label string
	// Identifiers reads and writes object identifiers (default: an engine-owned side-table).
	Identifiers IdentifierStore
	// Generator names anonymous handlers (default: Sequence("anon_")).
	Generator IDGenerator
	// Strict makes missing identifiers and missing namespaces errors
	// instead of being tolerated or auto-installed.
	Strict bool
	// Logger receives debug records about namespaces and identifiers (default: discard).
	Logger *slog.Logger
}

// Option adjusts Options before validation.
type Option func(*Options)

// WithLabel sets the namespace label.
func WithLabel(label string) Option {
	return func(o *Options) {
		o.Label = label
	}
}

// WithStrict turns on the strict identifier policy.
func WithStrict() Option {
	return func(o *Options) {
		o.Strict = true
	}
}

// WithIdentifiers replaces the identifier store.
func WithIdentifiers(s IdentifierStore) Option {
	return func(o *Options) {
		if s != nil {
			o.Identifiers = s
		}
	}
}

// WithGenerator replaces the generator used for anonymous handlers.
func WithGenerator(g IDGenerator) Option {
	return func(o *Options) {
		if g != nil {
			o.Generator = g
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// Normalize turns loose input into validated Options with defaults applied.
//
// Accepted input: a property name (string), a list of names ([]string, or
// []any holding only strings), Options or *Options, and a decoded object
// (map[string]any) with the keys "properties", "context" and "strict".
func Normalize(input any) (Options, error) {
	o, err := normalize(input)
	if err != nil {
		return Options{}, err
	}
	return finalize(o)
}

func normalize(input any) (Options, error) {
	switch v := input.(type) {
	case string:
		return Options{Properties: []string{v}}, nil
	case []string:
		return Options{Properties: slices.Clone(v)}, nil
	case []any:
		props, err := stringList(v)
		if err != nil {
			return Options{}, err
		}
		return Options{Properties: props}, nil
	case Options:
		v.Properties = slices.Clone(v.Properties)
		return v, nil
	case *Options:
		if v == nil {
			return Options{}, fmt.Errorf("%w: nil options", ErrInvalidConfig)
		}
		return normalize(*v)
	case map[string]any:
		return fromMap(v)
	default:
		return Options{}, fmt.Errorf("%w: unsupported input %T", ErrInvalidConfig, input)
	}
}

// fromMap reads the decoded object form. Unknown keys are rejected so a
// typo fails at construction time.
func fromMap(m map[string]any) (Options, error) {
	var o Options

	var unknown []string
	for k := range m {
		switch k {
		case "properties", "context", "strict":
		default:
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Options{}, fmt.Errorf("%w: unknown options %q", ErrInvalidConfig, unknown)
	}

	switch p := m["properties"].(type) {
	case string:
		o.Properties = []string{p}
	case []string:
		o.Properties = slices.Clone(p)
	case []any:
		props, err := stringList(p)
		if err != nil {
			return Options{}, err
		}
		o.Properties = props
	default:
		return Options{}, fmt.Errorf("%w: properties must be a list of strings, got %T", ErrInvalidConfig, m["properties"])
	}

	if raw, ok := m["context"]; ok {
		label, isString := raw.(string)
		if !isString {
			return Options{}, fmt.Errorf("%w: context must be a string, got %T", ErrInvalidConfig, raw)
		}
		o.Label = label
	}

	if raw, ok := m["strict"]; ok {
		strict, isBool := raw.(bool)
		if !isBool {
			return Options{}, fmt.Errorf("%w: strict must be a bool, got %T", ErrInvalidConfig, raw)
		}
		o.Strict = strict
	}

	return o, nil
}

func stringList(items []any) ([]string, error) {
	props := make([]string, 0, len(items))
	var invalid []any
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			invalid = append(invalid, item)
			continue
		}
		props = append(props, s)
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("%w: properties not strings: %v", ErrInvalidConfig, invalid)
	}
	return props, nil
}

// finalize validates properties and fills defaults. Duplicate names collapse.
func finalize(o Options) (Options, error) {
	if len(o.Properties) == 0 {
		return Options{}, fmt.Errorf("%w: no properties", ErrInvalidConfig)
	}

	seen := make(map[string]struct{}, len(o.Properties))
	props := make([]string, 0, len(o.Properties))
	for _, p := range o.Properties {
		if p == "" {
			return Options{}, fmt.Errorf("%w: empty property name", ErrInvalidConfig)
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		props = append(props, p)
	}
	o.Properties = props

	if o.Label == "" {
		o.Label = DefaultLabel
	}
	if o.Identifiers == nil {
		o.Identifiers = NewSideTable()
	}
	if o.Generator == nil {
		o.Generator = Sequence(DefaultIDPrefix)
	}
	if o.Logger == nil {
		o.Logger = logger.Discard()
	}

	return o, nil
}
