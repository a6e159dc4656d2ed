package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// dotenvLoaded guards the one-time .env load. A missing .env file is not an
// error; production environments inject variables directly.
var dotenvLoaded sync.Once

// Load parses environment variables into the given configuration struct
// based on `env` field tags. The default .env file is loaded into the
// process environment on the first call.
//
// Example:
//
//	type DatabaseConfig struct {
//		ConnString string `env:"DATABASE_URL,required"`
//		MaxConns   int32  `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
//	}
//
//	var cfg DatabaseConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvLoaded.Do(func() {
		_ = godotenv.Load()
	})

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure. Use it for configuration
// the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
