// Package auth is the authentication half of the remote data service:
// bcrypt credentials, JWT sessions and per-session auth clients.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dealerportal/backend/internal/domain/identity"
	"github.com/dealerportal/backend/internal/infrastructure/event"
	"go.uber.org/zap"
)

// ServiceDeps are the collaborators of Service
type ServiceDeps struct {
	Users     identity.UserRepository
	Profiles  identity.ProfileRepository
	Tokens    *JWTService
	Blacklist TokenBlacklist
	Hasher    *PasswordHasher
	Logger    *zap.Logger
}

// Service owns the shared auth machinery. Each portal session talks to it
// through its own Client, which carries that session's token state.
type Service struct {
	users     identity.UserRepository
	profiles  identity.ProfileRepository
	tokens    *JWTService
	blacklist TokenBlacklist
	hasher    *PasswordHasher
	logger    *zap.Logger
}

// NewService creates a new auth service
func NewService(deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	blacklist := deps.Blacklist
	if blacklist == nil {
		blacklist = NewInMemoryTokenBlacklist()
	}
	hasher := deps.Hasher
	if hasher == nil {
		hasher = NewPasswordHasher(0)
	}
	return &Service{
		users:     deps.Users,
		profiles:  deps.Profiles,
		tokens:    deps.Tokens,
		blacklist: blacklist,
		hasher:    hasher,
		logger:    logger.Named("auth"),
	}
}

// NewClient returns a signed-out client with its own event bus
func (s *Service) NewClient() *Client {
	return &Client{
		svc: s,
		bus: event.NewAuthBus(s.logger),
	}
}

// RestoreClient rebuilds a signed-in client from a still valid access token.
// The refresh token is unknown, so the restored session cannot be refreshed.
func (s *Service) RestoreClient(ctx context.Context, accessToken string) (*Client, error) {
	claims, err := s.Authenticate(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, ErrInvalidClaims
	}
	account, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	c := s.NewClient()
	user := account.User
	c.sessionID = claims.SessionID
	c.user = &user
	c.tokens = &TokenPair{
		AccessToken:          accessToken,
		AccessTokenExpiresAt: claims.GetExpiresAtTime(),
		TokenType:            "Bearer",
	}
	return c, nil
}

// RefreshSessionID validates a refresh token and returns the session it belongs to
func (s *Service) RefreshSessionID(refreshToken string) (string, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", err
	}
	return claims.SessionID, nil
}

// RestoreClientFromRefresh rebuilds a client from a refresh token and
// immediately rotates it, so the returned client holds a full token pair.
func (s *Service) RestoreClientFromRefresh(ctx context.Context, refreshToken string) (*Client, *TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, err
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, nil, err
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, nil, ErrInvalidClaims
	}
	account, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("restore session: %w", err)
	}

	c := s.NewClient()
	user := account.User
	c.sessionID = claims.SessionID
	c.user = &user
	c.tokens = &TokenPair{RefreshToken: refreshToken, TokenType: "Bearer"}

	pair, err := c.Refresh(ctx)
	if err != nil {
		return nil, nil, err
	}
	return c, pair, nil
}

// Authenticate validates an access token and checks it was not revoked
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*Claims, error) {
	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Service) checkRevoked(ctx context.Context, claims *Claims) error {
	revoked, err := s.blacklist.IsSessionRevoked(ctx, claims.SessionID)
	if err != nil {
		return err
	}
	if !revoked {
		revoked, err = s.blacklist.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			return err
		}
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}

// IsSessionEnded reports token errors that mean the session is gone for good
func IsSessionEnded(err error) bool {
	return errors.Is(err, ErrTokenRevoked) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrInvalidClaims) ||
		errors.Is(err, ErrInvalidTokenType) ||
		errors.Is(err, ErrMissingUserID) ||
		errors.Is(err, ErrMissingSessionID) ||
		errors.Is(err, ErrTokenNotYetValid)
}
