package audit

import "errors"

var (
	// ErrEventValidation indicates event validation failed
	ErrEventValidation = errors.New("audit event validation failed")

	// ErrStorageNotAvailable indicates the storage backend rejected or could not take the write
	ErrStorageNotAvailable = errors.New("audit storage is unavailable")
)
