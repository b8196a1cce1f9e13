package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type options struct {
	envFiles    []string
	prefix      string
	environment map[string]string
}

// Option configures a single Load call.
type Option func(*options)

// WithEnvFiles loads the given dotenv files before parsing. Variables already
// present in the process environment win over file values. Missing files are
// an error, unlike the implicit default ".env".
func WithEnvFiles(paths ...string) Option {
	return func(o *options) {
		o.envFiles = append(o.envFiles, paths...)
	}
}

// WithPrefix prepends prefix to every env tag, e.g. "BILLING_".
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithEnvironment parses from vars instead of the process environment.
// Dotenv files are not read in this mode. Intended for tests.
func WithEnvironment(vars map[string]string) Option {
	return func(o *options) {
		o.environment = vars
	}
}

// Load parses environment variables into v according to its `env` struct
// tags. A ".env" file in the working directory is loaded first if present.
//
// Nothing is cached: callers build their configuration once at startup and
// pass it down explicitly.
//
//	type Config struct {
//		WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
//		DatabaseURL   string `env:"PG_CONN_URL,required"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.environment == nil {
		if err := loadDotenv(o.envFiles); err != nil {
			return errors.Join(ErrLoadingEnvFile, err)
		}
	}

	parseOpts := env.Options{
		Prefix:      o.prefix,
		Environment: o.environment,
	}
	if err := env.ParseWithOptions(v, parseOpts); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	return nil
}

// MustLoad works like Load but panics on failure.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic("config: " + err.Error())
	}
}

func loadDotenv(files []string) error {
	if len(files) > 0 {
		return godotenv.Load(files...)
	}

	// The default file is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
