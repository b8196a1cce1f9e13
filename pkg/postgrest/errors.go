package postgrest

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured   = errors.New("persistence gateway is not configured")
	ErrInvalidURL      = errors.New("invalid persistence gateway url")
	ErrInvalidTable    = errors.New("invalid table name")
	ErrRequestFailed   = errors.New("persistence request failed")
	ErrDecodeResponse  = errors.New("failed to decode persistence response")
	ErrEncodeRequest   = errors.New("failed to encode persistence request")
	ErrUniqueViolation = errors.New("unique constraint violation")
)

// Error is a non-2xx response from the gateway.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("postgrest: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("postgrest: %d: %s", e.Status, e.Message)
}

// Is lets errors.Is match Postgres unique violations (SQLSTATE 23505) as
// ErrUniqueViolation.
func (e *Error) Is(target error) bool {
	return target == ErrUniqueViolation && e.Code == "23505"
}
