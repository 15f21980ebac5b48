// Package auth resolves the current user for a request. The OAuth
// provider of the hosted platform is abstracted as a Provider; sessions
// minted by the session admin command stand in for its callback flow.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/plugreg/plugreg/internal/apperr"
	"github.com/plugreg/plugreg/internal/models"
)

// User is the authenticated identity attached to a request.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Provider resolves the user behind a request. Implementations return
// apperr.ErrUnauthorized when no valid credentials are present.
type Provider interface {
	UserFromRequest(r *http.Request) (*User, error)
}

// SessionStore is the store surface the session provider needs.
type SessionStore interface {
	GetSession(token string) (*models.Session, error)
}

// SessionProvider authenticates requests by resolving a Bearer token
// against the session table.
type SessionProvider struct {
	store SessionStore
	now   func() time.Time
}

// NewSessionProvider creates a session-backed provider.
func NewSessionProvider(store SessionStore) *SessionProvider {
	return &SessionProvider{store: store, now: time.Now}
}

// UserFromRequest resolves the Bearer token to a non-expired session.
func (p *SessionProvider) UserFromRequest(r *http.Request) (*User, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, apperr.ErrUnauthorized
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		return nil, apperr.ErrUnauthorized
	}

	s, err := p.store.GetSession(token)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, err
	}
	if !s.ExpiresAt.IsZero() && p.now().After(s.ExpiresAt) {
		return nil, apperr.ErrUnauthorized
	}
	return &User{ID: s.UserID, Email: s.Email}, nil
}

// StaticProvider returns a fixed user for every request (disabled auth
// mode, local development).
type StaticProvider struct {
	User User
}

// NewStaticProvider creates a provider that always resolves to u.
func NewStaticProvider(u User) StaticProvider {
	return StaticProvider{User: u}
}

// UserFromRequest returns the fixed user.
func (p StaticProvider) UserFromRequest(_ *http.Request) (*User, error) {
	u := p.User
	return &u, nil
}

type ctxKey struct{}

// NewContext returns a context carrying the user.
func NewContext(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the user stored in the context, if any.
func FromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*User)
	return u, ok
}
