package redis

import "time"

type Config struct {
	ConnectionURL  string        `env:"REDIS_URL"`                              // ConnectionURL in the form "redis://:password@localhost:6379/0". Empty disables Redis.
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`    // RetryAttempts is the number of attempts to connect.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`   // RetryInterval is the pause between attempts.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"` // ConnectTimeout bounds the whole connection phase.
	LedgerTTL      time.Duration `env:"REDIS_LEDGER_TTL" envDefault:"72h"`      // LedgerTTL is how long processed event ids are remembered.
	KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"clinicdesk:webhook:event:"`
}
