package errs

import "errors"

// Sentinel errors of the withdrawal protocol. Handlers wrap them with
// additional context; the REST layer maps them to status codes.
var (
	// Malformed request: unparseable payload or missing Idempotency-Key header.
	ErrInvalidRequest        = errors.New("invalid request")
	ErrMissingIdempotencyKey = errors.New("missing idempotency key")

	// Validation failures, terminal for the attempt.
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDestination = errors.New("invalid destination")

	// The idempotency key is already bound to an existing record.
	ErrDuplicateRequest = errors.New("duplicate request")

	ErrNotFound  = errors.New("not found")
	ErrRateLimit = errors.New("rate limit exceeded")
)

// JSON is the error response body.
// Should only be used immediately before marshalling.
type JSON struct {
	Message string `json:"message"`
}
