package cache

import "errors"

// Backend errors. A missing key is not an error: Get reports it through
// its found result.
var (
	// ErrInvalidKey rejects empty oracle cache keys.
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrConnectionFailed means the backend could not be reached at startup.
	ErrConnectionFailed = errors.New("cache connection failed")

	// ErrOperationTimeout wraps a backend call that ran past its deadline.
	ErrOperationTimeout = errors.New("cache operation timeout")
)
