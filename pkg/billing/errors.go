package billing

import "errors"

var (
	// ErrUnconfigured means the webhook signing secret is missing. Every
	// delivery fails until the process is restarted with a secret.
	ErrUnconfigured = errors.New("webhook secret not configured")

	// ErrMalformedPayload means the signature was valid but the body is not a
	// decodable event.
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrPersistence wraps a failed primary tenant-state write. The sender is
	// expected to retry.
	ErrPersistence = errors.New("failed to persist tenant state")

	ErrInvalidPlan       = errors.New("invalid plan tier")
	ErrLoadingPricesFile = errors.New("failed to load plan prices file")
	ErrDuplicatePriceID  = errors.New("price id mapped to more than one plan")
)
