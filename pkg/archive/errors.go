package archive

import "errors"

var (
	ErrInvalidConfig      = errors.New("invalid archive configuration")
	ErrFailedToLoadConfig = errors.New("failed to load AWS config")
	ErrInvalidEventID     = errors.New("invalid event id")
	ErrArchiveFailed      = errors.New("failed to archive event")
	ErrAccessDenied       = errors.New("archive access denied")
	ErrBucketNotFound     = errors.New("archive bucket not found")
	ErrServiceUnavailable = errors.New("archive service unavailable")
)
