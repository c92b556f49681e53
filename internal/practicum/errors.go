package practicum

import (
	"errors"
	"fmt"
)

var (
	ErrConnection       = errors.New("practicum: connection failed")
	ErrInvalidStatus    = errors.New("practicum: unexpected status code")
	ErrMalformedPayload = errors.New("practicum: malformed payload")
)

// ConnectionError wraps a transport failure: DNS, dial, TLS, timeout or cancellation.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() []error { return []error{ErrConnection, e.Err} }

// StatusError reports a non-2xx answer. Body holds a truncated copy for logs.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("endpoint %s returned status %d", e.Endpoint, e.Code)
}

func (e *StatusError) Unwrap() error { return ErrInvalidStatus }

type PayloadError struct {
	Err error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("response body is not valid JSON: %v", e.Err)
}

func (e *PayloadError) Unwrap() []error { return []error{ErrMalformedPayload, e.Err} }
