// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package loads a .env file on first use and uses caarlos0/env to parse
// environment variables into struct fields:
//
//	type EngineConfig struct {
//		Properties []string `env:"CONTEXTUALIZE_PROPERTIES,required" envSeparator:","`
//		Label      string   `env:"CONTEXTUALIZE_LABEL" envDefault:"context"`
//	}
//
//	var cfg EngineConfig
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	// Or panic on failure (useful for startup)
//	config.MustLoad(&cfg)
//
// Different types are cached independently; a failed load is not cached.
package config
