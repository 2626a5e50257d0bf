package handler

import (
	"github.com/dealerportal/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SessionHandler exposes the caller's session state
type SessionHandler struct {
	BaseHandler
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// Get godoc
// @Summary      Current session
// @Description  The signed-in user with profile and company
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response{data=dto.SessionResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/session [get]
func (h *SessionHandler) Get(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	h.Success(c, dto.ToSessionResponse(ws.Session.Snapshot()))
}

// UpdateProfile godoc
// @Summary      Update profile
// @Description  Change the given fields of the caller's profile
// @Tags         session
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.UpdateProfileRequest true "Profile fields"
// @Success      200 {object} dto.Response{data=dto.SessionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/session/profile [patch]
func (h *SessionHandler) UpdateProfile(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}
	update := req.ToProfileUpdate()
	if update.IsEmpty() {
		h.BadRequest(c, "At least one field must be provided")
		return
	}

	if _, err := ws.Session.UpdateProfile(c.Request.Context(), update); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToSessionResponse(ws.Session.Snapshot()))
}
