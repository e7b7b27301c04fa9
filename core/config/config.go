package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrParsing is returned when environment variables cannot be parsed into the target struct.
var ErrParsing = errors.New("failed to parse environment config")

var (
	dotenvOnce sync.Once
	cache      sync.Map // map[reflect.Type]any
)

// Load fills cfg from the environment. The first successful load of a type
// is cached and returned for every later call with the same type.
func Load[T any](cfg *T) error {
	// A missing .env file is not an error
	dotenvOnce.Do(func() { _ = godotenv.Load() })

	key := reflect.TypeFor[T]()
	if v, ok := cache.Load(key); ok {
		*cfg = v.(T)
		return nil
	}

	var fresh T
	if err := env.Parse(&fresh); err != nil {
		return fmt.Errorf("%w: %w", ErrParsing, err)
	}

	v, _ := cache.LoadOrStore(key, fresh)
	*cfg = v.(T)
	return nil
}

// MustLoad is like Load but panics on error. Intended for process startup.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
