package notify

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer is the per-subscriber channel capacity
const subscriberBuffer = 32

// Ensure Local implements the interface.
var _ Bus = (*Local)(nil)

// Local is an in-process Bus
type Local struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]map[int]chan VersionEvent
	nextID int
	closed bool
}

// NewLocal creates an in-process bus
func NewLocal() *Local {
	return &Local{subs: make(map[uuid.UUID]map[int]chan VersionEvent)}
}

// Publish delivers the event to every subscriber of its resume without blocking.
// A subscriber whose buffer is full misses the event; editors reconcile against
// the store on their next read, so a dropped notification only delays the snap-back.
func (l *Local) Publish(_ context.Context, event VersionEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, ch := range l.subs[event.ResumeID] {
		select {
		case ch <- event:
		default:
			log.Printf("[notify] subscriber %d for %s is full, dropping %s v%d",
				id, event.ResumeID, event.Section, event.Version)
		}
	}
	return nil
}

// Subscribe registers a subscriber for one resume
func (l *Local) Subscribe(_ context.Context, resumeID uuid.UUID) (<-chan VersionEvent, func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch := make(chan VersionEvent, subscriberBuffer)
	if l.closed {
		close(ch)
		return ch, func() {}, nil
	}
	if l.subs[resumeID] == nil {
		l.subs[resumeID] = make(map[int]chan VersionEvent)
	}
	id := l.nextID
	l.nextID++
	l.subs[resumeID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if sub, ok := l.subs[resumeID][id]; ok {
				delete(l.subs[resumeID], id)
				close(sub)
			}
		})
	}
	return ch, cancel, nil
}

// Close closes every subscriber channel
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for resumeID, subs := range l.subs {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(l.subs, resumeID)
	}
	l.closed = true
	return nil
}
