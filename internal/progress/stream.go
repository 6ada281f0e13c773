package progress

import (
	"context"
	"io"
	"sync"

	"github.com/jonathan/resume-editor/internal/types"
)

// SliceStream replays a fixed sequence of messages and then reports io.EOF
type SliceStream struct {
	mu       sync.Mutex
	messages []types.ProgressMessage
	pos      int
	closed   bool
}

// NewSliceStream creates a stream over msgs
func NewSliceStream(msgs ...types.ProgressMessage) *SliceStream {
	return &SliceStream{messages: msgs}
}

// Next returns the next message, or io.EOF after the last one
func (s *SliceStream) Next(ctx context.Context) (types.ProgressMessage, error) {
	if err := ctx.Err(); err != nil {
		return types.ProgressMessage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.pos >= len(s.messages) {
		return types.ProgressMessage{}, io.EOF
	}
	msg := s.messages[s.pos]
	s.pos++
	return msg, nil
}

// Close ends the stream
func (s *SliceStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ChannelStream adapts a channel of messages; closing the channel ends the stream
type ChannelStream struct {
	ch   <-chan types.ProgressMessage
	done chan struct{}
	once sync.Once
}

// NewChannelStream creates a stream reading from ch
func NewChannelStream(ch <-chan types.ProgressMessage) *ChannelStream {
	return &ChannelStream{ch: ch, done: make(chan struct{})}
}

// Next blocks until a message arrives, the channel closes, or ctx is done
func (s *ChannelStream) Next(ctx context.Context) (types.ProgressMessage, error) {
	select {
	case <-ctx.Done():
		return types.ProgressMessage{}, ctx.Err()
	case <-s.done:
		return types.ProgressMessage{}, io.EOF
	case msg, ok := <-s.ch:
		if !ok {
			return types.ProgressMessage{}, io.EOF
		}
		return msg, nil
	}
}

// Close stops the stream; pending Next calls return io.EOF
func (s *ChannelStream) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
