package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// Header is the request header carrying the signature string.
	Header = "Stripe-Signature"

	// Tolerance is the maximum allowed distance between the signed timestamp
	// and the receiver's clock, in either direction.
	Tolerance = 300 * time.Second

	schemeV1 = "v1"
)

// Signature is a parsed signature header: t=<unix>,v1=<hex>[,v1=<hex>...].
type Signature struct {
	Timestamp int64
	V1        string   // first v1 value; the only one compared
	Extra     []string // any further v1 values, kept for diagnostics
}

// ParseSignatureHeader extracts the timestamp and the first v1 signature.
// Keys other than t and v1 are ignored. An empty first v1 is rejected even
// when a later v1 has a value.
func ParseSignatureHeader(header string) (Signature, error) {
	var sig Signature
	var hasTimestamp, hasV1 bool

	for part := range strings.SplitSeq(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}

		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return Signature{}, invalid(fmt.Errorf("%w: timestamp %q", ErrMalformedHeader, value))
			}
			sig.Timestamp = ts
			hasTimestamp = true
		case schemeV1:
			if !hasV1 {
				sig.V1 = value
				hasV1 = true
			} else {
				sig.Extra = append(sig.Extra, value)
			}
		}
	}

	if !hasTimestamp {
		return Signature{}, invalid(ErrMissingTimestamp)
	}
	if sig.V1 == "" {
		return Signature{}, invalid(ErrMissingSignature)
	}

	return sig, nil
}

// ComputeSignature returns the hex-encoded HMAC-SHA256 of "{timestamp}.{payload}".
func ComputeSignature(secret string, timestamp int64, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strconv.FormatInt(timestamp, 10)))
	h.Write([]byte("."))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// SignPayload builds a signature header for payload signed at the given time.
// Useful for tests and for replaying captured events against a local endpoint.
func SignPayload(secret string, payload []byte, at time.Time) string {
	ts := at.Unix()
	return fmt.Sprintf("t=%d,%s=%s", ts, schemeV1, ComputeSignature(secret, ts, payload))
}

// Verifier checks signature headers against a shared secret.
// It is safe for concurrent use.
type Verifier struct {
	secret string
	now    func() time.Time
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithClock overrides the time source used for the freshness check.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// NewVerifier returns a Verifier for the given secret.
func NewVerifier(secret string, opts ...VerifierOption) (*Verifier, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	v := &Verifier{
		secret: secret,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}

	return v, nil
}

// Verify authenticates payload against the signature header.
// The HMAC is checked before the timestamp so a stale but forged request and a
// stale genuine one are indistinguishable to the caller.
func (v *Verifier) Verify(payload []byte, header string) error {
	sig, err := ParseSignatureHeader(header)
	if err != nil {
		return err
	}

	expected := ComputeSignature(v.secret, sig.Timestamp, payload)
	if !hmac.Equal([]byte(expected), []byte(sig.V1)) {
		return invalid(ErrSignatureMismatch)
	}

	age := v.now().Sub(time.Unix(sig.Timestamp, 0))
	if age > Tolerance {
		return invalid(fmt.Errorf("%w: age %s", ErrTimestampTooOld, age.Truncate(time.Second)))
	}
	if age < -Tolerance {
		return invalid(ErrTimestampInFuture)
	}

	return nil
}
