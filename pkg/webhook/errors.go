package webhook

import "errors"

// Every verification failure matches ErrInvalidSignature via errors.Is. The more
// specific sentinels are joined onto it for logging only and must never be
// reported back to the sender.
var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMissingSecret    = errors.New("webhook signing secret is required")

	ErrMalformedHeader   = errors.New("malformed signature header")
	ErrMissingTimestamp  = errors.New("signature header has no timestamp")
	ErrMissingSignature  = errors.New("signature header has no v1 signature")
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrTimestampTooOld   = errors.New("signature timestamp outside tolerance")
	ErrTimestampInFuture = errors.New("signature timestamp is in the future")
)

// IsInvalidSignature reports whether err is a signature verification failure.
func IsInvalidSignature(err error) bool {
	return errors.Is(err, ErrInvalidSignature)
}

func invalid(reason error) error {
	return errors.Join(ErrInvalidSignature, reason)
}
