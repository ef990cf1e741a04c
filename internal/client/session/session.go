// Package session holds the authenticated identity of the client.
//
// A Session is passed explicitly to the data-access layer instead of living
// in a process global, so several sessions can coexist (for example in
// tests simulating an admin and a guest side by side).
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the view of the auth state needed by data access.
type Session interface {
	IsValid() bool
	Token() string
}

// Persister keeps the auth state across process restarts.
type Persister interface {
	Load(ctx context.Context) (token string, record json.RawMessage, err error)
	Save(ctx context.Context, token string, record json.RawMessage) error
	Clear(ctx context.Context) error
}

// AuthStore is a Session backed by a token and the auth record returned on
// login. It is safe for concurrent use.
type AuthStore struct {
	mu        sync.RWMutex
	token     string
	record    json.RawMessage
	persister Persister
	now       func() time.Time
}

type Option func(*AuthStore)

func WithPersister(p Persister) Option {
	return func(s *AuthStore) { s.persister = p }
}

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *AuthStore) { s.now = now }
}

func NewAuthStore(opts ...Option) *AuthStore {
	s := &AuthStore{now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load restores the persisted state. Without a persister it does nothing.
func (s *AuthStore) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	token, record, err := s.persister.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.token, s.record = token, record
	s.mu.Unlock()
	return nil
}

// Save replaces the auth state and writes it through to the persister. The
// in-memory state is updated even when persisting fails.
func (s *AuthStore) Save(ctx context.Context, token string, record json.RawMessage) error {
	s.mu.Lock()
	s.token, s.record = token, record
	p := s.persister
	s.mu.Unlock()

	if p == nil {
		return nil
	}
	return p.Save(ctx, token, record)
}

// Clear drops the auth state.
func (s *AuthStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token, s.record = "", nil
	p := s.persister
	s.mu.Unlock()

	if p == nil {
		return nil
	}
	return p.Clear(ctx)
}

func (s *AuthStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Record returns the auth record saved with the token.
func (s *AuthStore) Record() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

// IsValid reports whether a token is present and not expired. The signature
// is not checked: only the store can do that.
func (s *AuthStore) IsValid() bool {
	token := s.Token()
	if token == "" {
		return false
	}
	return !TokenExpired(token, s.now())
}

// TokenExpired reports whether the exp claim of token is at or before now.
// Unparsable tokens and tokens without exp count as expired.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return !exp.After(now)
}

// Guest is a Session that never holds a token.
type Guest struct{}

func (Guest) IsValid() bool { return false }
func (Guest) Token() string { return "" }
