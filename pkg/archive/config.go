package archive

// Config configures the raw event archive. An empty Bucket disables it.
type Config struct {
	Bucket          string `env:"EVENT_ARCHIVE_BUCKET"`
	Region          string `env:"EVENT_ARCHIVE_REGION" envDefault:"us-east-1"`
	Endpoint        string `env:"EVENT_ARCHIVE_ENDPOINT"` // Optional: for S3-compatible services
	AccessKeyID     string `env:"EVENT_ARCHIVE_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"EVENT_ARCHIVE_SECRET_ACCESS_KEY"`
	Prefix          string `env:"EVENT_ARCHIVE_PREFIX" envDefault:"stripe/events/"`
	ForcePathStyle  bool   `env:"EVENT_ARCHIVE_FORCE_PATH_STYLE"` // For S3-compatible services like MinIO
}

// Enabled reports whether an archive bucket is configured.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}
