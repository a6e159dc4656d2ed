// Package config loads typed configuration structs from environment
// variables using `env` struct tags, with optional .env file support for
// local development.
//
// Each subsystem declares its own config struct next to its code (database,
// payment provider, object storage) and the binary composes them at startup:
//
//	var cfg struct {
//		DB     pg.Config
//		Stripe billing.StripeConfig
//	}
//	config.MustLoad(&cfg)
//
// Required variables that are missing fail at startup, never at request
// time.
package config
