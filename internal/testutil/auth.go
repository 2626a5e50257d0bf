package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dealerportal/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// FakeAuth is a scriptable identity.AuthProvider. Listeners are invoked
// synchronously from Emit, SignIn and SignOut.
type FakeAuth struct {
	mu        sync.Mutex
	current   *identity.User
	currentFn func(ctx context.Context) (*identity.User, error)
	listeners map[int]identity.AuthListener
	nextID    int

	// SignInErr, SignUpErr and SignOutErr make the matching call fail
	SignInErr  error
	SignUpErr  error
	SignOutErr error

	// Quiet stops SignIn and SignOut from emitting events
	Quiet bool

	currentCalls int
}

// NewFakeAuth creates a FakeAuth signed in as user; nil means anonymous
func NewFakeAuth(user *identity.User) *FakeAuth {
	return &FakeAuth{current: user, listeners: make(map[int]identity.AuthListener)}
}

// NewTestUser builds a user with the given id
func NewTestUser(id uuid.UUID, email string) *identity.User {
	return &identity.User{ID: id, Email: email, CreatedAt: time.Now().UTC()}
}

// SetCurrentUser replaces the identity returned by CurrentUser
func (f *FakeAuth) SetCurrentUser(user *identity.User) {
	f.mu.Lock()
	f.current = user
	f.mu.Unlock()
}

// SetCurrentUserFunc overrides CurrentUser entirely
func (f *FakeAuth) SetCurrentUserFunc(fn func(ctx context.Context) (*identity.User, error)) {
	f.mu.Lock()
	f.currentFn = fn
	f.mu.Unlock()
}

// CurrentUserCalls returns how often CurrentUser was called
func (f *FakeAuth) CurrentUserCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentCalls
}

// ListenerCount returns the number of registered listeners
func (f *FakeAuth) ListenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

// Emit delivers an event to every listener
func (f *FakeAuth) Emit(eventType identity.AuthEventType, user *identity.User) {
	f.mu.Lock()
	listeners := make([]identity.AuthListener, 0, len(f.listeners))
	for _, l := range f.listeners {
		listeners = append(listeners, l)
	}
	f.mu.Unlock()

	evt := identity.AuthEvent{Type: eventType, User: user, OccurredAt: time.Now()}
	for _, l := range listeners {
		l(evt)
	}
}

func (f *FakeAuth) CurrentUser(ctx context.Context) (*identity.User, error) {
	f.mu.Lock()
	f.currentCalls++
	fn, user := f.currentFn, f.current
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return user, nil
}

func (f *FakeAuth) SignIn(ctx context.Context, creds identity.Credentials) (*identity.AuthResult, error) {
	if f.SignInErr != nil {
		return nil, f.SignInErr
	}
	if creds.Email == "" {
		return nil, errors.New("invalid login credentials")
	}
	user := NewTestUser(NewTestUUID(creds.Email), creds.Email)
	f.SetCurrentUser(user)
	if !f.Quiet {
		f.Emit(identity.AuthEventSignedIn, user)
	}
	return &identity.AuthResult{User: user, SessionID: uuid.NewString(), AccessToken: "access-" + creds.Email}, nil
}

func (f *FakeAuth) SignUp(ctx context.Context, input identity.SignUpInput) (*identity.AuthResult, error) {
	if f.SignUpErr != nil {
		return nil, f.SignUpErr
	}
	return f.SignIn(ctx, identity.Credentials{Email: input.Email, Password: input.Password})
}

func (f *FakeAuth) SignOut(ctx context.Context) error {
	if f.SignOutErr != nil {
		return f.SignOutErr
	}
	f.SetCurrentUser(nil)
	if !f.Quiet {
		f.Emit(identity.AuthEventSignedOut, nil)
	}
	return nil
}

func (f *FakeAuth) OnAuthStateChange(listener identity.AuthListener) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = listener
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}
