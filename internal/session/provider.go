// Package session holds the signed-in user for the editor with an explicit
// lifecycle: Init when a session starts, Teardown on logout.
package session

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNoSession indicates an operation that needs a signed-in user ran without one
var ErrNoSession = errors.New("no active session")

// Session is the signed-in user
type Session struct {
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
}

// Provider owns the current session and the hooks run when it ends
type Provider struct {
	tokens *TokenService

	mu      sync.Mutex
	current *Session
	hooks   map[int]func()
	nextID  int
}

// NewProvider creates a provider with no active session
func NewProvider(tokens *TokenService) *Provider {
	return &Provider{tokens: tokens, hooks: make(map[int]func())}
}

// Init validates token and makes it the active session, replacing any previous one
func (p *Provider) Init(token string) (Session, error) {
	claims, err := p.tokens.ValidateToken(token)
	if err != nil {
		return Session{}, fmt.Errorf("failed to start session: %w", err)
	}
	s := Session{UserID: claims.UserID, Token: token}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = &s
	log.Printf("[session] started for user %s", s.UserID)
	return s, nil
}

// Current returns the active session
func (p *Provider) Current() (Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Session{}, false
	}
	return *p.current, true
}

// OnTeardown registers fn to run when the session ends. The returned func unregisters it.
func (p *Provider) OnTeardown(fn func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.hooks[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.hooks, id)
	}
}

// Teardown ends the active session and runs the registered hooks once each
func (p *Provider) Teardown() {
	p.mu.Lock()
	hadSession := p.current != nil
	p.current = nil
	hooks := make([]func(), 0, len(p.hooks))
	for id, fn := range p.hooks {
		hooks = append(hooks, fn)
		delete(p.hooks, id)
	}
	p.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	if hadSession {
		log.Printf("[session] ended, %d teardown hooks run", len(hooks))
	}
}
