package tailor

import "fmt"

// StatusError is returned when the backend refuses to start a run
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("tailoring backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("tailoring backend returned status %d: %s", e.StatusCode, e.Body)
}

// DecodeError is returned when a frame cannot be decoded into a progress message
type DecodeError struct {
	Event string
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %q event: %v", e.Event, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}
