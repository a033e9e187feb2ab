package ai

import (
	"errors"
	"fmt"
)

// ServiceError reports a failed AI call: a transport failure, a non-200
// provider response, or output that could not be decoded.
type ServiceError struct {
	// Op is the dispatcher operation, e.g. "summarize".
	Op string

	// StatusCode is the provider HTTP status, or 0 when no response was
	// received.
	StatusCode int

	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("ai %s failed (%d): %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("ai %s failed: %s", e.Op, msg)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsServiceError reports whether err (or any error in its chain) is a
// ServiceError.
func IsServiceError(err error) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr)
}

// withOp returns err as a ServiceError tagged with op, wrapping non-service
// errors.
func withOp(op string, err error) error {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		tagged := *svcErr
		tagged.Op = op
		return &tagged
	}
	return &ServiceError{Op: op, Err: err}
}
