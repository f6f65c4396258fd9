package client

import (
	"fmt"
)

// NetworkError reports that the Audit State Service could not be reached:
// DNS, connection refused, timeouts, cancelled contexts.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServiceError reports a non-2xx answer or a body that could not be decoded.
type ServiceError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error // decode error, nil for status failures
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: service returned status %d: decode: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: service returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// BackendError wraps any failure of a comment write that must not be
// reflected locally.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: backend: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
