package header

import (
	"net/http"
	"strings"
)

// Idempotency-Key carries the caller's token for one logical
// creation intent.
const IdempotencyKey = "Idempotency-Key"

// GetIdempotencyKey returns the trimmed idempotency key of the request,
// or the empty string when the header is absent.
func GetIdempotencyKey(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(IdempotencyKey))
}

// IsApplicationJSONContentType returns true if the content type of the
// request is application/json.
func IsApplicationJSONContentType(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(contentType, ";"); i > -1 {
		contentType = contentType[0:i]
	}
	return contentType == "application/json"
}
