// Package config loads application configuration from environment variables
// into tagged structs.
//
// It combines github.com/joho/godotenv (optional .env files) with
// github.com/caarlos0/env/v11 (struct tag parsing). Unlike a process-wide
// registry, Load returns a fresh value on every call; build the configuration
// once in main and hand it to the components that need it.
//
// # Usage
//
//	type Config struct {
//		Addr   string        `env:"HTTP_ADDR" envDefault:":8080"`
//		Secret string        `env:"STRIPE_WEBHOOK_SECRET"`
//		TTL    time.Duration `env:"LEDGER_TTL" envDefault:"72h"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// Nested structs are parsed too, so component configs (pg.Config,
// httpserver.Config, ...) can be embedded in one application struct.
//
// # Errors
//
// Failures wrap ErrParsingConfig or ErrLoadingEnvFile and can be inspected
// with errors.Is. Missing `required` variables surface through
// ErrParsingConfig with the variable name in the joined error.
package config
