package progress

import (
	"fmt"
	"time"
)

// StreamTerminationWithoutFinalError indicates the stream closed before a final message arrived
type StreamTerminationWithoutFinalError struct {
	Received int
}

func (e *StreamTerminationWithoutFinalError) Error() string {
	return fmt.Sprintf("progress stream closed after %d messages without a final message", e.Received)
}

// StreamTimeoutError indicates no message arrived within the idle timeout
type StreamTimeoutError struct {
	Idle time.Duration
}

func (e *StreamTimeoutError) Error() string {
	return fmt.Sprintf("no progress message received for %s", e.Idle)
}

// StreamError wraps a transport failure while reading the stream
type StreamError struct {
	Cause error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("progress stream failed: %v", e.Cause)
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}
