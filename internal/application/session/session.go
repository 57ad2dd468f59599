package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskmaster/tasknote/internal/infrastructure/logger"
	"github.com/taskmaster/tasknote/internal/ports"
)

// Session holds the bearer token for the remote API. It replaces any
// process-wide token: callers receive it explicitly.
type Session struct {
	mu     sync.RWMutex
	token  string
	store  ports.TokenStore
	auth   ports.AuthAPI
	logger *logger.Logger
	now    func() time.Time
}

// New restores the persisted token, if any
func New(store ports.TokenStore, auth ports.AuthAPI, log *logger.Logger) (*Session, error) {
	token, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	return &Session{
		token:  token,
		store:  store,
		auth:   auth,
		logger: log.WithComponent("session"),
		now:    time.Now,
	}, nil
}

var _ ports.SessionProvider = (*Session)(nil)

// Token returns the current token, possibly empty
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Valid reports whether the session holds a usable token
func (s *Session) Valid() bool {
	return TokenUsable(s.Token(), s.now())
}

// Login authenticates against the remote API and persists the token
func (s *Session) Login(ctx context.Context, nickname, password string) error {
	token, err := s.auth.Login(ctx, nickname, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if err := s.store.Save(token); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	s.logger.Infow("Logged in", "nickname", nickname)
	return nil
}

// Register creates a remote account. It does not log in.
func (s *Session) Register(ctx context.Context, nickname, password string) error {
	if err := s.auth.Register(ctx, nickname, password); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	s.logger.Infow("Registered account", "nickname", nickname)
	return nil
}

// Logout forgets the token locally and on disk
func (s *Session) Logout() error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// ExpiresAt returns the token expiry when the token is a JWT carrying exp
func (s *Session) ExpiresAt() (time.Time, bool) {
	claims, ok := parseClaims(s.Token())
	if !ok {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// TokenUsable reports whether token is non-empty and, when it is a JWT with an
// exp claim, not yet expired. Opaque tokens are trusted until the server rejects them.
func TokenUsable(token string, now time.Time) bool {
	if strings.TrimSpace(token) == "" {
		return false
	}

	claims, ok := parseClaims(token)
	if !ok {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return now.Before(exp.Time)
}

// parseClaims reads JWT claims without verifying the signature; the client
// never holds the signing key
func parseClaims(token string) (jwt.MapClaims, bool) {
	if strings.Count(token, ".") != 2 {
		return nil, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}
