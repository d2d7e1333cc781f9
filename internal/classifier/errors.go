package classifier

import (
	"errors"
	"fmt"
)

// ErrorKind enumerates the gateway failure modes
type ErrorKind string

const (
	KindRateLimited     ErrorKind = "rate_limited"
	KindInvalidJSON     ErrorKind = "invalid_json"
	KindSchemaViolation ErrorKind = "schema_violation"
	KindTransportError  ErrorKind = "transport_error"
	KindContentTooShort ErrorKind = "content_too_short"
)

// Error is a classification failure with its kind attached so the
// orchestrator can count and retry appropriately.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a classifier error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind == kind
	}
	return false
}
