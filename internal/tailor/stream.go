package tailor

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/jonathan/resume-editor/internal/types"
	"golang.org/x/sync/errgroup"
)

// pumpStream runs a reader goroutine that feeds decoded messages to Next.
// Readers return io.EOF on a clean end of stream.
type pumpStream struct {
	msgs   chan types.ProgressMessage
	cancel context.CancelFunc
	closed atomic.Bool
	once   sync.Once
	err    error // written before msgs is closed
}

// readFunc reads until the transport ends, handing each message to emit
type readFunc func(ctx context.Context, emit func(types.ProgressMessage) error) error

// newPumpStream starts read and a watcher that calls release when the run ends
// or is cancelled, which unblocks reads that do not observe ctx
func newPumpStream(ctx context.Context, read readFunc, release func()) *pumpStream {
	ctx, cancel := context.WithCancel(ctx)
	s := &pumpStream{
		msgs:   make(chan types.ProgressMessage),
		cancel: cancel,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return read(gctx, func(msg types.ProgressMessage) error {
			select {
			case s.msgs <- msg:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})
	g.Go(func() error {
		<-gctx.Done()
		release()
		return nil
	})

	go func() {
		s.err = g.Wait()
		close(s.msgs)
	}()
	return s
}

// Next returns the next message, io.EOF once the stream ended cleanly, or
// the transport error that ended it
func (s *pumpStream) Next(ctx context.Context) (types.ProgressMessage, error) {
	select {
	case <-ctx.Done():
		return types.ProgressMessage{}, ctx.Err()
	case msg, ok := <-s.msgs:
		if ok {
			return msg, nil
		}
	}
	switch {
	case s.err == nil, errors.Is(s.err, io.EOF):
		return types.ProgressMessage{}, io.EOF
	case s.closed.Load():
		return types.ProgressMessage{}, io.EOF
	default:
		return types.ProgressMessage{}, s.err
	}
}

// Close stops the reader and releases the connection
func (s *pumpStream) Close() error {
	s.once.Do(func() {
		s.closed.Store(true)
		s.cancel()
	})
	return nil
}
