package handler

import (
	"net/http"

	"github.com/dealerportal/backend/internal/application/portal"
	"github.com/dealerportal/backend/internal/domain/identity"
	"github.com/dealerportal/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles sign-in, sign-up, token refresh and sign-out
type AuthHandler struct {
	BaseHandler
	registry *portal.Registry
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(registry *portal.Registry) *AuthHandler {
	return &AuthHandler{registry: registry}
}

// SignIn godoc
// @Summary      Sign in
// @Description  Open a portal session for valid credentials
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body dto.SignInRequest true "Credentials"
// @Success      200 {object} dto.Response{data=dto.AuthResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/auth/sign-in [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req dto.SignInRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ws, res, err := h.registry.SignIn(c.Request.Context(), identity.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAuthResponse(ws, res))
}

// SignUp godoc
// @Summary      Sign up
// @Description  Register an account with its dealer profile and open a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body dto.SignUpRequest true "New account"
// @Success      201 {object} dto.Response{data=dto.AuthResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/auth/sign-up [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dto.SignUpRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ws, res, err := h.registry.SignUp(c.Request.Context(), identity.SignUpInput{
		Email:     req.Email,
		Password:  req.Password,
		FullName:  req.FullName,
		CompanyID: req.CompanyID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(toAuthResponse(ws, res)))
}

// Refresh godoc
// @Summary      Refresh tokens
// @Description  Rotate the token pair. The presented refresh token is spent.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body dto.RefreshRequest true "Refresh token"
// @Success      200 {object} dto.Response{data=dto.TokenResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !h.bindJSON(c, &req) {
		return
	}

	_, pair, err := h.registry.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresAt:    pair.AccessTokenExpiresAt,
	})
}

// SignOut godoc
// @Summary      Sign out
// @Description  End the caller's session and revoke its tokens
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/auth/sign-out [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	if err := h.registry.SignOut(c.Request.Context(), ws); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toAuthResponse(ws *portal.Workspace, res *identity.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		SessionID:    res.SessionID,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    res.ExpiresAt,
		Session:      dto.ToSessionResponse(ws.Session.Snapshot()),
	}
}
