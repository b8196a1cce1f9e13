package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/clinicdesk/pkg/config"
)

type appConfig struct {
	Secret  string        `env:"WEBHOOK_SECRET"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
	Prices  priceConfig
}

type priceConfig struct {
	Basic string `env:"PRICE_BASIC"`
	Pro   string `env:"PRICE_PRO"`
}

type requiredConfig struct {
	URL string `env:"PERSISTENCE_URL,required"`
}

type fileConfig struct {
	Value string `env:"TEST_FILE_VALUE"`
	Int   int    `env:"TEST_FILE_INT"`
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("parses values and defaults", func(t *testing.T) {
		t.Parallel()

		var cfg appConfig
		err := config.Load(&cfg, config.WithEnvironment(map[string]string{
			"WEBHOOK_SECRET": "whsec_t",
			"PRICE_PRO":      "price_pro",
		}))

		require.NoError(t, err)
		assert.Equal(t, "whsec_t", cfg.Secret)
		assert.Equal(t, 30*time.Second, cfg.Timeout)
		assert.Equal(t, "price_pro", cfg.Prices.Pro)
		assert.Empty(t, cfg.Prices.Basic)
	})

	t.Run("prefix", func(t *testing.T) {
		t.Parallel()

		var cfg appConfig
		err := config.Load(&cfg,
			config.WithPrefix("BILLING_"),
			config.WithEnvironment(map[string]string{
				"WEBHOOK_SECRET":         "ignored",
				"BILLING_WEBHOOK_SECRET": "prefixed",
			}),
		)

		require.NoError(t, err)
		assert.Equal(t, "prefixed", cfg.Secret)
	})

	t.Run("missing required", func(t *testing.T) {
		t.Parallel()

		var cfg requiredConfig
		err := config.Load(&cfg, config.WithEnvironment(map[string]string{}))
		require.ErrorIs(t, err, config.ErrParsingConfig)
		assert.Contains(t, err.Error(), "PERSISTENCE_URL")
	})

	t.Run("nil pointer", func(t *testing.T) {
		t.Parallel()

		var cfg *appConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})

	t.Run("returns fresh values on every call", func(t *testing.T) {
		t.Parallel()

		var first, second appConfig
		require.NoError(t, config.Load(&first, config.WithEnvironment(map[string]string{"WEBHOOK_SECRET": "a"})))
		require.NoError(t, config.Load(&second, config.WithEnvironment(map[string]string{"WEBHOOK_SECRET": "b"})))
		assert.Equal(t, "a", first.Secret)
		assert.Equal(t, "b", second.Secret)
	})
}

func TestLoad_EnvFiles(t *testing.T) {
	var cfg fileConfig
	err := config.Load(&cfg, config.WithEnvFiles("testdata/test.env"))

	require.NoError(t, err)
	assert.Equal(t, "from_file", cfg.Value)
	assert.Equal(t, 7, cfg.Int)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	var cfg fileConfig
	err := config.Load(&cfg, config.WithEnvFiles("testdata/does-not-exist.env"))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}

func TestMustLoad(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg, config.WithEnvironment(map[string]string{}))
	})
}
