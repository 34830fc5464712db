package flows

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Token is an access credential with its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// NeedsRefresh reports whether the token is unusable at the given instant,
// including a safety margin before actual expiry.
func (t Token) NeedsRefresh(now time.Time, margin time.Duration) bool {
	if t.Value == "" {
		return true
	}
	return !now.Add(margin).Before(t.ExpiresAt)
}

// RefreshFunc obtains a fresh token.
type RefreshFunc func(ctx context.Context) (Token, error)

// SessionOption configures a session.
type SessionOption func(*Session)

// WithRefreshMargin sets how long before expiry a token counts as stale.
func WithRefreshMargin(margin time.Duration) SessionOption {
	return func(s *Session) {
		if margin >= 0 {
			s.margin = margin
		}
	}
}

// WithClock overrides the session clock.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session caches a token and refreshes it on demand. Concurrent callers that
// find the token stale share a single refresh instead of stampeding the
// auth endpoint.
type Session struct {
	refresh RefreshFunc
	margin  time.Duration
	now     func() time.Time

	mu       sync.Mutex
	token    Token
	inflight *refreshCall
}

type refreshCall struct {
	done  chan struct{}
	token Token
	err   error
}

// NewSession constructs a session around a refresh function.
func NewSession(refresh RefreshFunc, options ...SessionOption) (*Session, error) {
	if refresh == nil {
		return nil, errors.New("flows: refresh func is required")
	}
	s := &Session{
		refresh: refresh,
		margin:  30 * time.Second,
		now:     time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Token returns a usable token, refreshing if needed. Only one refresh runs
// at a time; other callers wait for its outcome.
func (s *Session) Token(ctx context.Context) (Token, error) {
	s.mu.Lock()
	if !s.token.NeedsRefresh(s.now(), s.margin) {
		token := s.token
		s.mu.Unlock()
		return token, nil
	}

	if s.inflight != nil {
		call := s.inflight
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.token, call.err
		case <-ctx.Done():
			return Token{}, ctx.Err()
		}
	}

	call := &refreshCall{done: make(chan struct{})}
	s.inflight = call
	s.mu.Unlock()

	token, err := s.refresh(ctx)

	s.mu.Lock()
	if err == nil {
		s.token = token
	}
	s.inflight = nil
	s.mu.Unlock()

	call.token = token
	call.err = err
	close(call.done)
	return token, err
}

// Invalidate drops the cached token so the next call refreshes.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.token = Token{}
	s.mu.Unlock()
}
