package postgrest

import "time"

// Config points the client at a PostgREST-compatible persistence gateway.
type Config struct {
	URL     string        `env:"PERSISTENCE_URL"`                      // Base URL, e.g. https://project.example.co/rest/v1
	Key     string        `env:"PERSISTENCE_KEY"`                      // Service access key, sent as apikey and bearer token.
	Timeout time.Duration `env:"PERSISTENCE_TIMEOUT" envDefault:"10s"` // Per-request timeout.
}
