// Package session holds the portal's authentication state: who is signed
// in, their profile and the dealer company they act for.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dealerportal/backend/internal/domain/identity"
	"github.com/dealerportal/backend/internal/domain/shared"
	"github.com/dealerportal/backend/internal/infrastructure/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Phase is the lifecycle stage of a Store
type Phase string

const (
	PhaseUninitialized Phase = "UNINITIALIZED"
	PhaseLoading       Phase = "LOADING"
	PhaseAuthenticated Phase = "AUTHENTICATED"
	PhaseAnonymous     Phase = "ANONYMOUS"
)

// Snapshot is a copy of the session state. Profile and Company are only
// set when User is set.
type Snapshot struct {
	User    *identity.User
	Profile *identity.Profile
	Company *identity.Company
	Loading bool
	Phase   Phase
}

// CompanyID returns the resolved company id, or uuid.Nil
func (s Snapshot) CompanyID() uuid.UUID {
	if s.User == nil || s.Company == nil {
		return uuid.Nil
	}
	return s.Company.ID
}

// Deps are the collaborators of a Store
type Deps struct {
	Auth      identity.AuthProvider
	Profiles  identity.ProfileRepository
	Companies identity.CompanyRepository
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

// Store owns the session state of one portal user.
//
// Auth events are applied synchronously by a listener that never performs
// I/O. Profile and company lookups run on a separate reactor goroutine and
// are discarded when a newer event arrived while they were in flight.
type Store struct {
	auth      identity.AuthProvider
	profiles  identity.ProfileRepository
	companies identity.CompanyRepository
	logger    *zap.Logger
	metrics   *metrics.Metrics

	mu          sync.RWMutex
	state       Snapshot
	gen         uint64
	started     bool
	disposed    bool
	unsubscribe func()

	notifyMu  sync.Mutex
	watchMu   sync.Mutex
	watchers  map[uint64]func(Snapshot)
	nextWatch uint64

	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// NewStore creates an uninitialized store
func NewStore(deps Deps) *Store {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		auth:      deps.Auth,
		profiles:  deps.Profiles,
		companies: deps.Companies,
		logger:    logger.Named("session"),
		metrics:   deps.Metrics,
		state:     Snapshot{Phase: PhaseUninitialized},
		watchers:  make(map[uint64]func(Snapshot)),
		wake:      make(chan struct{}, 1),
	}
}

// Init subscribes to auth events, starts the reactor and resolves the
// current identity, profile and company. Lookup failures are logged and
// leave the session without a profile or company. Loading is false when
// Init returns.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.started || s.disposed {
		s.mu.Unlock()
		return shared.ErrInvalidState
	}
	s.started = true
	s.state.Loading = true
	s.state.Phase = PhaseLoading
	gen := s.gen
	s.mu.Unlock()
	s.notify()

	unsubscribe := s.auth.OnAuthStateChange(s.handleAuthEvent)

	reactorCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		unsubscribe()
		cancel()
		return shared.ErrInvalidState
	}
	s.unsubscribe = unsubscribe
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()
	go s.react(reactorCtx, done)

	user, err := s.auth.CurrentUser(ctx)
	if err != nil {
		s.logger.Warn("failed to resolve current user", zap.Error(err))
		user = nil
	}

	var profile *identity.Profile
	var company *identity.Company
	if user != nil {
		profile, company = s.loadDerived(ctx, user.ID)
	}

	s.mu.Lock()
	if s.gen == gen {
		s.state.User = user
		s.state.Profile = profile
		s.state.Company = company
	} else if user != nil && s.state.User != nil && s.state.User.ID == user.ID && s.state.Profile == nil {
		// an event for the same identity arrived meanwhile; keep its user
		s.state.Profile = profile
		s.state.Company = company
	}
	s.state.Loading = false
	s.state.Phase = phaseOf(s.state)
	s.mu.Unlock()
	s.notify()

	s.logger.Debug("session initialized", zap.String("phase", string(s.Snapshot().Phase)))
	return nil
}

// Dispose detaches the auth listener and stops the reactor
func (s *Store) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	unsubscribe, cancel, done := s.unsubscribe, s.cancel, s.done
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
		<-done
	}

	s.watchMu.Lock()
	clear(s.watchers)
	s.watchMu.Unlock()
}

// handleAuthEvent applies an auth event. It must stay free of I/O.
func (s *Store) handleAuthEvent(evt identity.AuthEvent) {
	s.metrics.AuthEvent(string(evt.Type))

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.gen++
	switch {
	case evt.User == nil:
		s.state.User, s.state.Profile, s.state.Company = nil, nil, nil
	case s.state.User == nil || s.state.User.ID != evt.User.ID:
		u := *evt.User
		s.state.User, s.state.Profile, s.state.Company = &u, nil, nil
	default:
		u := *evt.User
		s.state.User = &u
	}
	if !s.state.Loading {
		s.state.Phase = phaseOf(s.state)
	}
	s.mu.Unlock()

	s.logger.Debug("auth event applied", zap.String("type", string(evt.Type)))
	s.notify()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// react fetches derived data whenever an identity has no profile yet
func (s *Store) react(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}

		s.mu.RLock()
		user, hasProfile, gen := s.state.User, s.state.Profile != nil, s.gen
		s.mu.RUnlock()
		if user == nil || hasProfile {
			continue
		}

		profile, company := s.loadDerived(ctx, user.ID)
		if ctx.Err() != nil {
			return
		}

		s.mu.Lock()
		applied := false
		if s.gen == gen && !s.disposed && s.state.User != nil && s.state.User.ID == user.ID {
			s.state.Profile = profile
			s.state.Company = company
			applied = true
		}
		s.mu.Unlock()

		if applied {
			s.notify()
		} else {
			s.logger.Debug("discarded stale profile lookup", zap.String("user_id", user.ID.String()))
		}
	}
}

// loadDerived looks up the profile and its company. Failures are logged
// and reported as missing data.
func (s *Store) loadDerived(ctx context.Context, userID uuid.UUID) (*identity.Profile, *identity.Company) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		s.logLookupError("profile", userID, err)
		return nil, nil
	}
	company, err := s.loadCompany(ctx, profile)
	if err != nil {
		s.logLookupError("company", userID, err)
	}
	return profile, company
}

func (s *Store) loadCompany(ctx context.Context, profile *identity.Profile) (*identity.Company, error) {
	if !profile.HasCompany() {
		return nil, nil
	}
	return s.companies.FindByID(ctx, *profile.CompanyID)
}

func (s *Store) logLookupError(what string, userID uuid.UUID, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		s.logger.Info(what+" not found", zap.String("user_id", userID.String()))
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	s.logger.Warn(what+" lookup failed", zap.String("user_id", userID.String()), zap.Error(err))
}

// SignIn delegates to the auth provider and returns its result unchanged
func (s *Store) SignIn(ctx context.Context, creds identity.Credentials) (*identity.AuthResult, error) {
	return s.auth.SignIn(ctx, creds)
}

// SignUp delegates to the auth provider and returns its result unchanged
func (s *Store) SignUp(ctx context.Context, input identity.SignUpInput) (*identity.AuthResult, error) {
	return s.auth.SignUp(ctx, input)
}

// SignOut delegates to the auth provider and, on success, clears the
// session before returning.
func (s *Store) SignOut(ctx context.Context) error {
	if err := s.auth.SignOut(ctx); err != nil {
		s.logger.Warn("sign out failed", zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.gen++
	s.state.User, s.state.Profile, s.state.Company = nil, nil, nil
	if !s.state.Loading && s.started {
		s.state.Phase = PhaseAnonymous
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// UpdateProfile writes the update for the identity the auth provider
// reports now, not the cached one, and stores the row the repository
// returns. The company is reloaded when the profile points elsewhere.
func (s *Store) UpdateProfile(ctx context.Context, update identity.ProfileUpdate) (*identity.Profile, error) {
	user, err := s.auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, shared.ErrUnauthenticated
	}

	profile, err := s.profiles.Update(ctx, user.ID, update)
	if err != nil {
		s.logger.Warn("profile update failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, err
	}

	cached := s.Company()
	company := cached
	switch {
	case !profile.HasCompany():
		company = nil
	case cached == nil || cached.ID != *profile.CompanyID:
		company, err = s.loadCompany(ctx, profile)
		if err != nil {
			s.logLookupError("company", user.ID, err)
			company = nil
		}
	}

	s.mu.Lock()
	if s.state.User != nil && s.state.User.ID == user.ID {
		s.state.Profile = profile
		s.state.Company = company
	}
	s.mu.Unlock()
	s.notify()

	out := *profile
	return &out, nil
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// User returns the signed-in identity, or nil
func (s *Store) User() *identity.User { return s.Snapshot().User }

// Profile returns the profile, or nil
func (s *Store) Profile() *identity.Profile { return s.Snapshot().Profile }

// Company returns the resolved company, or nil
func (s *Store) Company() *identity.Company { return s.Snapshot().Company }

// Loading reports whether Init is still resolving the session
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Loading
}

// Watch registers fn to receive the latest snapshot after every change.
// Calls are serialized. fn must not call SignOut, UpdateProfile or Init
// synchronously.
func (s *Store) Watch(fn func(Snapshot)) (cancel func()) {
	s.watchMu.Lock()
	s.nextWatch++
	id := s.nextWatch
	s.watchers[id] = fn
	s.watchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.watchMu.Lock()
			delete(s.watchers, id)
			s.watchMu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.watchMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.watchMu.Unlock()
	if len(fns) == 0 {
		return
	}

	snap := s.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}

func phaseOf(s Snapshot) Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case s.User != nil:
		return PhaseAuthenticated
	default:
		return PhaseAnonymous
	}
}

func (s Snapshot) clone() Snapshot {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Profile != nil {
		p := *s.Profile
		if p.CompanyID != nil {
			id := *p.CompanyID
			p.CompanyID = &id
		}
		out.Profile = &p
	}
	if s.Company != nil {
		c := *s.Company
		out.Company = &c
	}
	return out
}
