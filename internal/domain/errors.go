package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrQuotaExhausted    = errors.New("quota exhausted")
	ErrConfiguration     = errors.New("generation provider not configured")
	ErrProvider          = errors.New("provider failure")
	ErrMalformedResponse = errors.New("malformed provider response")
	ErrPersistence       = errors.New("persistence failure")
)

// PayloadTooLargeError reports an ingestion payload that exceeds a hard cost
// ceiling. The measured and allowed sizes are part of the message so the
// caller can act on it without further lookups.
type PayloadTooLargeError struct {
	Size int
	Max  int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("payload too large: %d characters exceeds the maximum of %d", e.Size, e.Max)
}

// Is lets errors.Is match any PayloadTooLargeError against ErrPayloadTooLarge.
func (e *PayloadTooLargeError) Is(target error) bool {
	_, ok := target.(*PayloadTooLargeError)
	return ok
}

// ErrPayloadTooLarge is the sentinel used with errors.Is for size-ceiling failures.
var ErrPayloadTooLarge error = &PayloadTooLargeError{}
