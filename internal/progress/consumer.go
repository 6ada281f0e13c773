// Package progress consumes the ordered message stream of a long-running
// tailoring operation and tracks whether the operation is still running.
package progress

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-editor/internal/types"
)

// State of the operation whose messages are being consumed
type State int

// Operation states
const (
	StateIdle State = iota
	StateRunning
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends the operation
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// defaultDrainTimeout bounds how long Consume keeps reading after the final message
const defaultDrainTimeout = 2 * time.Second

// Stream is an ordered asynchronous sequence of progress messages.
// Next returns io.EOF once the stream has closed cleanly.
type Stream interface {
	Next(ctx context.Context) (types.ProgressMessage, error)
	Close() error
}

// Options configures a Consumer
type Options struct {
	// Filter selects the displayed messages; nil means DefaultFilter
	Filter Filter
	// IdleTimeout fails the operation when no message arrives in time; zero disables it
	IdleTimeout time.Duration
	// DrainTimeout bounds reading after the final message; zero means two seconds
	DrainTimeout time.Duration
	// OnMessage is called outside the consumer's lock after each message is recorded
	OnMessage func(msg types.ProgressMessage, displayed bool)
	// Now stamps ReceivedAt; nil means time.Now
	Now func() time.Time
}

// Consumer records the message log of one operation at a time
type Consumer struct {
	mu          sync.RWMutex
	state       State
	operationID uuid.UUID
	log         []types.ProgressMessage
	final       *types.ProgressMessage
	// cutoff is the log length at Detach; -1 while attached
	cutoff int
	opts   Options
}

// NewConsumer creates an idle consumer
func NewConsumer(opts Options) *Consumer {
	if opts.Filter == nil {
		opts.Filter = DefaultFilter
	}
	if opts.DrainTimeout == 0 {
		opts.DrainTimeout = defaultDrainTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Consumer{cutoff: -1, opts: opts}
}

// Start begins a new operation: the log is cleared and the state becomes Running
func (c *Consumer) Start() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateRunning
	c.operationID = uuid.New()
	c.log = nil
	c.final = nil
	c.cutoff = -1
	return c.operationID
}

// Append records a message in arrival order. The first final message decides
// the terminal state; messages arriving after it are still recorded.
// Appending to an idle consumer starts the operation without clearing the log.
func (c *Consumer) Append(msg types.ProgressMessage) {
	displayed := c.append(msg)
	if c.opts.OnMessage != nil {
		c.opts.OnMessage(msg, displayed)
	}
}

func (c *Consumer) append(msg types.ProgressMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appendLocked(msg)
}

// appendLocked requires c.mu held for writing
func (c *Consumer) appendLocked(msg types.ProgressMessage) bool {
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = c.opts.Now()
	}
	if c.state == StateIdle {
		c.state = StateRunning
		c.operationID = uuid.New()
	}
	c.log = append(c.log, msg)

	if c.state == StateRunning && msg.IsFinal() {
		final := msg
		c.final = &final
		if msg.Succeeded() {
			c.state = StateSucceeded
		} else {
			c.state = StateFailed
		}
	} else if c.state.Terminal() {
		log.Printf("[progress] operation %s: message after final (%s %s)", c.operationID, msg.Type, msg.Label())
	}
	return c.cutoff < 0 && c.opts.Filter(msg)
}

// Fail ends a running operation with a synthetic failure message carrying cause.
// It is a no-op once the operation is terminal.
func (c *Consumer) Fail(cause error) {
	msg := types.FinalMessage(false, cause.Error())
	msg.Data = map[string]any{"synthetic": true}

	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return
	}
	displayed := c.appendLocked(msg)
	c.mu.Unlock()

	if c.opts.OnMessage != nil {
		c.opts.OnMessage(msg, displayed)
	}
}

// Detach stops rendering: messages recorded from now on are not displayed,
// but still drive the state machine.
func (c *Consumer) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cutoff < 0 {
		c.cutoff = len(c.log)
	}
}

// Consume starts an operation and reads the stream until it ends.
// A stream that closes without a final message, stalls past the idle timeout,
// or fails in transport leaves the consumer Failed with a failure message in the log.
func (c *Consumer) Consume(ctx context.Context, stream Stream) (State, error) {
	c.Start()
	defer stream.Close() //nolint:errcheck

	for {
		msg, err := c.next(ctx, stream, c.opts.IdleTimeout)
		if err != nil {
			return c.finish(ctx, err)
		}
		c.Append(msg)
		if c.State().Terminal() {
			c.drain(ctx, stream)
			return c.State(), nil
		}
	}
}

// drain records anything the backend sends after its final message
func (c *Consumer) drain(ctx context.Context, stream Stream) {
	for {
		msg, err := c.next(ctx, stream, c.opts.DrainTimeout)
		if err != nil {
			return
		}
		c.Append(msg)
	}
}

func (c *Consumer) next(ctx context.Context, stream Stream, timeout time.Duration) (types.ProgressMessage, error) {
	if timeout <= 0 {
		return stream.Next(ctx)
	}
	nextCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	msg, err := stream.Next(nextCtx)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return msg, &StreamTimeoutError{Idle: timeout}
	}
	return msg, err
}

// finish maps the error that ended a running stream onto the terminal state
func (c *Consumer) finish(ctx context.Context, err error) (State, error) {
	var result error
	switch {
	case errors.Is(err, io.EOF):
		result = &StreamTerminationWithoutFinalError{Received: c.Len()}
	case ctx.Err() != nil:
		result = ctx.Err()
	default:
		var timeout *StreamTimeoutError
		if errors.As(err, &timeout) {
			result = timeout
		} else {
			result = &StreamError{Cause: err}
		}
	}
	log.Printf("[progress] operation %s failed: %v", c.OperationID(), result)
	c.Fail(result)
	return c.State(), result
}

// State returns the current state
func (c *Consumer) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Running reports whether an operation is in progress
func (c *Consumer) Running() bool {
	return c.State() == StateRunning
}

// OperationID identifies the current or last operation
func (c *Consumer) OperationID() uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.operationID
}

// Final returns the message that ended the operation, if any
func (c *Consumer) Final() (types.ProgressMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.final == nil {
		return types.ProgressMessage{}, false
	}
	return *c.final, true
}

// Len returns the number of recorded messages
func (c *Consumer) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.log)
}

// Log returns every recorded message in arrival order
func (c *Consumer) Log() []types.ProgressMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]types.ProgressMessage(nil), c.log...)
}

// Displayed returns the filtered messages recorded before any Detach
func (c *Consumer) Displayed() []types.ProgressMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	limit := len(c.log)
	if c.cutoff >= 0 {
		limit = c.cutoff
	}
	var out []types.ProgressMessage
	for _, msg := range c.log[:limit] {
		if c.opts.Filter(msg) {
			out = append(out, msg)
		}
	}
	return out
}
