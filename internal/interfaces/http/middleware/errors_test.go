package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dealerportal/backend/internal/domain/identity"
	"github.com/dealerportal/backend/internal/domain/shared"
	"github.com/dealerportal/backend/internal/infrastructure/auth"
	"github.com/dealerportal/backend/internal/interfaces/http/dto"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"expired token", fmt.Errorf("authenticate: %w", auth.ErrExpiredToken), http.StatusUnauthorized, dto.ErrCodeTokenExpired},
		{"revoked token", auth.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrCodeTokenInvalid},
		{"wrong token type", auth.ErrInvalidTokenType, http.StatusUnauthorized, dto.ErrCodeTokenInvalid},
		{"bad credentials", identity.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrCodeInvalidCredentials},
		{"email taken", identity.ErrEmailTaken, http.StatusConflict, dto.ErrCodeEmailTaken},
		{"no company", shared.ErrUnauthenticated, http.StatusForbidden, dto.ErrCodeNoCompany},
		{"not found", fmt.Errorf("load: %w", shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"invalid input", shared.ErrInvalidInput, http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"disposed hook", shared.ErrInvalidState, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"business rule", shared.NewDomainError("INVALID_VALID_UNTIL", "Valid-until date must be in the future"), http.StatusUnprocessableEntity, dto.ErrCodeBusinessRule},
		{"cancelled", context.Canceled, StatusClientClosedRequest, dto.ErrCodeBadRequest},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := ErrorResponse(tt.err, "req-1")
			assert.Equal(t, tt.status, status)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestErrorResponse_HidesInternalCause(t *testing.T) {
	_, resp := ErrorResponse(errors.New("pq: password authentication failed"), "")
	assert.NotContains(t, resp.Error.Message, "pq")
}

func TestErrorResponse_ValidationDetails(t *testing.T) {
	type line struct {
		Quantity int `json:"quantity" validate:"min=1"`
	}
	type input struct {
		Lines []line `json:"lines" validate:"required,min=1,dive"`
	}
	v := newTestValidator()
	verr := v.Struct(input{Lines: []line{{Quantity: 0}}})
	require.Error(t, verr)

	err := fmt.Errorf("%w: %w", shared.ErrInvalidInput, verr)
	status, resp := ErrorResponse(err, "")

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "lines[0].quantity", resp.Error.Details[0].Field)
	assert.Equal(t, "Must be at least 1", resp.Error.Details[0].Message)

	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}
