package factory

import (
	"errors"
	"fmt"
)

var (
	ErrMissingToken      = errors.New("factory: auth token not configured")
	ErrMalformedResponse = errors.New("factory: malformed upstream response")
)

// UpstreamError is returned when the factory answers with a non-2xx status.
// Body is kept for server-side diagnostics and must not reach API callers.
type UpstreamError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return "factory upstream error"
	}
	if e.Body == "" {
		return fmt.Sprintf("factory %s failed: status=%d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("factory %s failed: status=%d body=%s", e.Operation, e.StatusCode, e.Body)
}

// UnreachableError wraps transport failures: DNS, refused connections, timeouts.
type UnreachableError struct {
	Operation string
	Err       error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "factory unreachable"
	}
	return fmt.Sprintf("factory %s unreachable: %v", e.Operation, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
