package types

import "errors"

// Domain errors for type validation
var (
	// Finding errors
	ErrUnknownCategory = errors.New("unknown finding category")
	ErrInvalidSeverity = errors.New("invalid finding severity")

	// Caller-misuse errors: these indicate programming errors, not
	// runtime conditions, and are returned immediately
	ErrNoOutcomes          = errors.New("no chunk outcomes to merge")
	ErrInvalidChunkLines   = errors.New("max chunk lines must be positive")
	ErrInvalidConcurrency  = errors.New("max concurrency must be positive")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)
