package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dealerportal/backend/internal/application/portal"
	"github.com/dealerportal/backend/internal/infrastructure/auth"
	"github.com/dealerportal/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Get(ctx context.Context, accessToken string) (*portal.Workspace, error) {
	args := m.Called(ctx, accessToken)
	ws, _ := args.Get(0).(*portal.Workspace)
	return ws, args.Error(1)
}

func sessionRouter(resolver WorkspaceResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SessionAuth(resolver))
	router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return router
}

func TestSessionAuth_RejectsMissingBearer(t *testing.T) {
	resolver := new(mockResolver)
	router := sessionRouter(resolver)

	for _, header := range []string{"", "Basic abc", "Bearer ", "Bearer    "} {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if header != "" {
			req.Header.Set(AuthHeaderKey, header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.Contains(t, w.Body.String(), dto.ErrCodeTokenInvalid)
	}
	resolver.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestSessionAuth_ResolverErrors(t *testing.T) {
	resolver := new(mockResolver)
	resolver.On("Get", mock.Anything, "expired").Return(nil, auth.ErrExpiredToken)
	router := sessionRouter(resolver)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(AuthHeaderKey, "Bearer expired")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeTokenExpired)
	resolver.AssertExpectations(t)
}

func TestGetWorkspace_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetWorkspace(c))
}
