// Package auth owns the user session: authorizing credentials against the
// registration API, issuing the signed session token, resolving it on each
// request and revoking it on sign-out.
package auth

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// State is the position of a session in its lifecycle.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
	Expired
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	}
	return "unauthenticated"
}

var (
	// ErrInvalidCredentials covers every sign-in failure. Callers must not
	// tell the user which factor was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("no session")
	ErrSessionExpired     = errors.New("session expired")
)

// Credentials is one sign-in submission.
type Credentials struct {
	Email    string
	Password string
	OTPCode  string
}

// Session is the authenticated caller. The zero value is Unauthenticated.
type Session struct {
	ID          string
	UserID      string
	Email       string
	AccessToken string
	APIKey      string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	State       State
}

// Present reports whether s authorizes protected pages.
func (s Session) Present() bool {
	return s.State == Authenticated
}

const localsKey = "session"

// Store attaches the resolved session to the request.
func Store(c *fiber.Ctx, s Session) {
	c.Locals(localsKey, s)
}

// FromCtx returns the session resolved for the request. Handlers read it once
// and pass it explicitly to services.
func FromCtx(c *fiber.Ctx) Session {
	s, _ := c.Locals(localsKey).(Session)
	return s
}
