package identity

import (
	"context"
	"time"
)

// AuthEventType identifies an auth state change notification
type AuthEventType string

const (
	AuthEventInitialSession AuthEventType = "INITIAL_SESSION"
	AuthEventSignedIn       AuthEventType = "SIGNED_IN"
	AuthEventSignedOut      AuthEventType = "SIGNED_OUT"
	AuthEventUserUpdated    AuthEventType = "USER_UPDATED"
	AuthEventTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
)

// AuthEvent is pushed to listeners whenever the identity changes.
// User is nil when the event reports no identity.
type AuthEvent struct {
	Type       AuthEventType
	User       *User
	OccurredAt time.Time
}

// AuthListener receives auth events. Implementations must not block.
type AuthListener func(AuthEvent)

// AuthProvider is the auth half of the remote data service
type AuthProvider interface {
	// CurrentUser returns the signed-in identity, or nil when anonymous
	CurrentUser(ctx context.Context) (*User, error)

	SignIn(ctx context.Context, creds Credentials) (*AuthResult, error)
	SignUp(ctx context.Context, input SignUpInput) (*AuthResult, error)
	SignOut(ctx context.Context) error

	// OnAuthStateChange registers a listener and returns its unsubscribe func
	OnAuthStateChange(listener AuthListener) (unsubscribe func())
}
