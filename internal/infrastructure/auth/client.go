package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dealerportal/backend/internal/domain/identity"
	"github.com/dealerportal/backend/internal/domain/shared"
	"github.com/dealerportal/backend/internal/infrastructure/event"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client is the auth provider of a single portal session. It holds that
// session's tokens and notifies its own listeners of identity changes.
// Events are published after the client's lock is released.
type Client struct {
	svc *Service
	bus *event.AuthBus

	mu        sync.Mutex
	sessionID string
	user      *identity.User
	tokens    *TokenPair
}

var _ identity.AuthProvider = (*Client)(nil)

// SessionID returns the id shared by this session's tokens, or "" when signed out
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Tokens returns a copy of the current token pair, or nil when signed out
func (c *Client) Tokens() *TokenPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens == nil {
		return nil
	}
	t := *c.tokens
	return &t
}

// CurrentUser re-validates the session and reads the user from the store.
// A revoked or unrecoverable session signs the client out and returns nil.
func (c *Client) CurrentUser(ctx context.Context) (*identity.User, error) {
	c.mu.Lock()
	tokens := c.tokens
	c.mu.Unlock()
	if tokens == nil {
		return nil, nil
	}

	claims, err := c.svc.Authenticate(ctx, tokens.AccessToken)
	if errors.Is(err, ErrExpiredToken) && tokens.RefreshToken != "" {
		if _, rerr := c.Refresh(ctx); rerr == nil {
			c.mu.Lock()
			tokens = c.tokens
			c.mu.Unlock()
			if tokens == nil {
				return nil, nil
			}
			claims, err = c.svc.Authenticate(ctx, tokens.AccessToken)
		} else {
			err = rerr
		}
	}
	if err != nil {
		if IsSessionEnded(err) {
			c.svc.logger.Info("session ended", zap.String("session_id", c.SessionID()), zap.Error(err))
			c.endSession(tokens)
			return nil, nil
		}
		return nil, err
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		c.endSession(tokens)
		return nil, nil
	}
	account, err := c.svc.users.FindByID(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		c.endSession(tokens)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load current user: %w", err)
	}

	user := account.User
	c.mu.Lock()
	if c.sessionID == claims.SessionID {
		u := user
		c.user = &u
	}
	c.mu.Unlock()
	return &user, nil
}

// SignIn checks the credentials and starts a new session
func (c *Client) SignIn(ctx context.Context, creds identity.Credentials) (*identity.AuthResult, error) {
	creds = creds.Normalize()
	if creds.Email == "" || creds.Password == "" {
		return nil, identity.ErrInvalidCredentials
	}

	account, err := c.svc.users.FindByEmail(ctx, creds.Email)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, identity.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	ok, err := c.svc.hasher.Verify(account.PasswordHash, creds.Password)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if !ok {
		c.svc.logger.Info("sign-in rejected", zap.String("user_id", account.ID.String()))
		return nil, identity.ErrInvalidCredentials
	}

	if err := c.svc.users.TouchLastSignIn(ctx, account.ID); err != nil {
		c.svc.logger.Warn("failed to record sign-in", zap.String("user_id", account.ID.String()), zap.Error(err))
	} else {
		now := time.Now()
		account.LastSignInAt = &now
	}

	return c.establish(ctx, account.User)
}

// SignUp registers a user, provisions the profile row and signs in
func (c *Client) SignUp(ctx context.Context, input identity.SignUpInput) (*identity.AuthResult, error) {
	hash, err := c.svc.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	account, err := identity.NewUserAccount(input.Email, hash)
	if err != nil {
		return nil, err
	}

	if err := c.svc.users.Create(ctx, account); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, identity.ErrEmailTaken
		}
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if err := c.svc.profiles.Create(ctx, identity.NewProfile(&account.User, input.FullName, input.CompanyID)); err != nil {
		c.svc.logger.Error("profile provisioning failed",
			zap.String("user_id", account.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("sign up: create profile: %w", err)
	}

	return c.establish(ctx, account.User)
}

// SignOut revokes the session's tokens and clears the identity.
// On failure the session is left intact.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	sessionID := c.sessionID
	signedIn := c.tokens != nil
	c.mu.Unlock()
	if !signedIn {
		return nil
	}

	if err := c.svc.blacklist.RevokeSession(ctx, sessionID, c.svc.tokens.GetRefreshTokenExpiration()); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	c.mu.Lock()
	c.clearLocked()
	c.mu.Unlock()

	c.svc.logger.Info("signed out", zap.String("session_id", sessionID))
	c.bus.Publish(identity.AuthEvent{Type: identity.AuthEventSignedOut})
	return nil
}

// Refresh rotates the token pair and revokes the old refresh token
func (c *Client) Refresh(ctx context.Context) (*TokenPair, error) {
	c.mu.Lock()
	tokens := c.tokens
	c.mu.Unlock()
	if tokens == nil || tokens.RefreshToken == "" {
		return nil, ErrInvalidToken
	}

	old, err := c.svc.tokens.ValidateRefreshToken(tokens.RefreshToken)
	if err != nil {
		return nil, err
	}
	if err := c.svc.checkRevoked(ctx, old); err != nil {
		return nil, err
	}
	pair, _, err := c.svc.tokens.RefreshTokenPair(tokens.RefreshToken)
	if err != nil {
		return nil, err
	}
	if err := c.svc.blacklist.RevokeToken(ctx, old.ID, old.GetRemainingTTL()); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	c.mu.Lock()
	if c.tokens != tokens {
		c.mu.Unlock()
		return nil, ErrTokenRevoked
	}
	c.tokens = pair
	var user *identity.User
	if c.user != nil {
		u := *c.user
		user = &u
	}
	c.mu.Unlock()

	c.bus.Publish(identity.AuthEvent{Type: identity.AuthEventTokenRefreshed, User: user})
	out := *pair
	return &out, nil
}

// AdoptRefreshToken hands a client restored from an access token the refresh
// token of its own session so it can be refreshed. A client that already
// holds a refresh token keeps it.
func (c *Client) AdoptRefreshToken(ctx context.Context, refreshToken string) error {
	claims, err := c.svc.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return err
	}
	if err := c.svc.checkRevoked(ctx, claims); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens == nil || c.tokens.RefreshToken != "" || claims.SessionID != c.sessionID {
		return ErrTokenRevoked
	}
	t := *c.tokens
	t.RefreshToken = refreshToken
	t.RefreshTokenExpiresAt = claims.GetExpiresAtTime()
	c.tokens = &t
	return nil
}

// OnAuthStateChange registers a listener on this session's events
func (c *Client) OnAuthStateChange(listener identity.AuthListener) func() {
	return c.bus.Subscribe(listener)
}

func (c *Client) establish(ctx context.Context, user identity.User) (*identity.AuthResult, error) {
	sessionID := uuid.NewString()
	pair, err := c.svc.tokens.GenerateTokenPair(GenerateTokenInput{
		UserID:    user.ID,
		Email:     user.Email,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	c.mu.Lock()
	previous := c.sessionID
	c.sessionID = sessionID
	u := user
	c.user = &u
	c.tokens = pair
	c.mu.Unlock()

	if previous != "" {
		if err := c.svc.blacklist.RevokeSession(ctx, previous, c.svc.tokens.GetRefreshTokenExpiration()); err != nil {
			c.svc.logger.Warn("failed to revoke replaced session", zap.String("session_id", previous), zap.Error(err))
		}
	}

	c.svc.logger.Info("signed in",
		zap.String("user_id", user.ID.String()),
		zap.String("session_id", sessionID),
	)
	published := user
	c.bus.Publish(identity.AuthEvent{Type: identity.AuthEventSignedIn, User: &published})

	result := user
	return &identity.AuthResult{
		User:         &result,
		SessionID:    sessionID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.AccessTokenExpiresAt,
	}, nil
}

// endSession drops the state that produced tokens and announces the sign-out.
// A newer session established concurrently is left alone.
func (c *Client) endSession(tokens *TokenPair) {
	c.mu.Lock()
	if c.tokens != tokens {
		c.mu.Unlock()
		return
	}
	c.clearLocked()
	c.mu.Unlock()
	c.bus.Publish(identity.AuthEvent{Type: identity.AuthEventSignedOut})
}

func (c *Client) clearLocked() {
	c.sessionID = ""
	c.user = nil
	c.tokens = nil
}
