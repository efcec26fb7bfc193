package errors

import "errors"

// Domain errors
var (
	// Target errors
	ErrInvalidTarget = errors.New("invalid target")

	// Probe errors
	ErrPreloadCheckExhausted = errors.New("preload check exhausted without a positive match")

	// Log store errors
	ErrLogStoreCorrupt  = errors.New("log store is corrupt")
	ErrLogWriteFailure  = errors.New("log write failed")
	ErrUnsupportedStore = errors.New("unsupported log store driver")

	// Query errors
	ErrInvalidQuery = errors.New("invalid log query")

	// Repository errors
	ErrSerializationFailed   = errors.New("serialization failed")
	ErrDeserializationFailed = errors.New("deserialization failed")
)
