package portal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dealerportal/backend/internal/domain/identity"
	"github.com/dealerportal/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// Registry keeps the open workspaces keyed by session id. A workspace that
// is missing, for example after a restart, is rebuilt from a valid token.
type Registry struct {
	auth    *auth.Service
	builder *builder
	logger  *zap.Logger
	deps    Deps
	now     func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewRegistry creates an empty registry
func NewRegistry(deps Deps) *Registry {
	b := newBuilder(deps)
	return &Registry{
		auth:       deps.Auth,
		builder:    b,
		logger:     b.logger.Named("portal"),
		deps:       deps,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
}

// SignIn authenticates on a fresh client and opens its workspace
func (r *Registry) SignIn(ctx context.Context, creds identity.Credentials) (*Workspace, *identity.AuthResult, error) {
	client := r.auth.NewClient()
	res, err := client.SignIn(ctx, creds)
	if err != nil {
		return nil, nil, err
	}
	ws, err := r.Open(ctx, client)
	if err != nil {
		return nil, nil, err
	}
	return ws, res, nil
}

// SignUp registers an account on a fresh client and opens its workspace
func (r *Registry) SignUp(ctx context.Context, input identity.SignUpInput) (*Workspace, *identity.AuthResult, error) {
	client := r.auth.NewClient()
	res, err := client.SignUp(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	ws, err := r.Open(ctx, client)
	if err != nil {
		return nil, nil, err
	}
	return ws, res, nil
}

// Open builds and registers a workspace for a signed-in client
func (r *Registry) Open(ctx context.Context, client *auth.Client) (*Workspace, error) {
	sessionID := client.SessionID()
	if sessionID == "" {
		return nil, fmt.Errorf("open workspace: %w", auth.ErrInvalidToken)
	}
	ws, err := r.builder.build(ctx, client)
	if err != nil {
		return nil, err
	}
	return r.register(sessionID, ws), nil
}

// register stores ws unless another request registered the same session
// first; the loser is disposed and the existing workspace returned.
func (r *Registry) register(sessionID string, ws *Workspace) *Workspace {
	ws.touch(r.now())

	r.mu.Lock()
	if existing, ok := r.workspaces[sessionID]; ok {
		r.mu.Unlock()
		ws.Dispose()
		existing.touch(r.now())
		return existing
	}
	r.workspaces[sessionID] = ws
	n := len(r.workspaces)
	r.mu.Unlock()

	r.deps.Metrics.WorkspacesOpen(n)
	r.logger.Debug("workspace opened", zap.String("session_id", sessionID))
	return ws
}

// Get returns the workspace for a valid access token, rebuilding it when
// the registry does not hold it.
func (r *Registry) Get(ctx context.Context, accessToken string) (*Workspace, error) {
	claims, err := r.auth.Authenticate(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if ws := r.lookup(claims.SessionID); ws != nil {
		return ws, nil
	}

	client, err := r.auth.RestoreClient(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	r.logger.Info("rebuilding workspace from access token", zap.String("session_id", claims.SessionID))
	return r.Open(ctx, client)
}

// Refresh rotates the tokens of the session the refresh token belongs to
func (r *Registry) Refresh(ctx context.Context, refreshToken string) (*Workspace, *auth.TokenPair, error) {
	sessionID, err := r.auth.RefreshSessionID(refreshToken)
	if err != nil {
		return nil, nil, err
	}

	if ws := r.lookup(sessionID); ws != nil {
		current := ws.Client.Tokens()
		switch {
		case current == nil:
			return nil, nil, auth.ErrTokenRevoked
		case current.RefreshToken == "":
			// rebuilt from an access token; the caller holds the refresh token
			if err := ws.Client.AdoptRefreshToken(ctx, refreshToken); err != nil {
				return nil, nil, err
			}
		case current.RefreshToken != refreshToken:
			return nil, nil, auth.ErrTokenRevoked
		}
		pair, err := ws.Client.Refresh(ctx)
		if err != nil {
			return nil, nil, err
		}
		return ws, pair, nil
	}

	client, pair, err := r.auth.RestoreClientFromRefresh(ctx, refreshToken)
	if err != nil {
		return nil, nil, err
	}
	ws, err := r.Open(ctx, client)
	if err != nil {
		return nil, nil, err
	}
	return ws, pair, nil
}

// SignOut ends the workspace's session and closes it. The workspace stays
// open when the sign-out fails.
func (r *Registry) SignOut(ctx context.Context, ws *Workspace) error {
	sessionID := ws.SessionID()
	if err := ws.Session.SignOut(ctx); err != nil {
		return err
	}
	r.Close(sessionID)
	return nil
}

func (r *Registry) lookup(sessionID string) *Workspace {
	r.mu.Lock()
	ws := r.workspaces[sessionID]
	r.mu.Unlock()
	if ws != nil {
		ws.touch(r.now())
	}
	return ws
}

// Close disposes and forgets the workspace of sessionID, if any
func (r *Registry) Close(sessionID string) {
	r.mu.Lock()
	ws, ok := r.workspaces[sessionID]
	delete(r.workspaces, sessionID)
	n := len(r.workspaces)
	r.mu.Unlock()
	if !ok {
		return
	}
	ws.Dispose()
	r.deps.Metrics.WorkspacesOpen(n)
	r.logger.Debug("workspace closed", zap.String("session_id", sessionID))
}

// Len returns the number of open workspaces
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Sweep closes workspaces idle for longer than idle and returns how many
// were closed. Their sessions stay valid and are rebuilt on next use.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []string
	for id, ws := range r.workspaces {
		if ws.LastUsed().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	r.mu.Unlock()

	for _, id := range stale {
		r.Close(id)
	}
	if len(stale) > 0 {
		r.logger.Info("evicted idle workspaces", zap.Int("count", len(stale)))
	}
	return len(stale)
}

// RunEviction sweeps idle workspaces until ctx is done
func (r *Registry) RunEviction(ctx context.Context, idle time.Duration) {
	if idle <= 0 {
		return
	}
	interval := idle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(idle)
		}
	}
}

// CloseAll disposes every workspace
func (r *Registry) CloseAll() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.workspaces))
	for id := range r.workspaces {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	for _, id := range ids {
		r.Close(id)
	}
}
