package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/dealerportal/backend/internal/domain/shared"
	"github.com/dealerportal/backend/internal/infrastructure/auth"
	"github.com/dealerportal/backend/internal/infrastructure/logger"
	"github.com/dealerportal/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// StatusClientClosedRequest is answered when the caller went away
const StatusClientClosedRequest = 499

// ErrorResponse maps err onto a status code and response envelope
func ErrorResponse(err error, requestID string) (int, dto.Response) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed", requestID, ValidationDetails(err))
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(dto.ErrCodeTokenExpired, "Access token has expired", requestID)
	case auth.IsSessionEnded(err):
		return http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(dto.ErrCodeTokenInvalid, "Session is not valid", requestID)
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest, "Request cancelled", requestID)
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		return dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID)
	}

	return http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	)
}

// WriteError answers the request with the response for err. Server errors
// are logged with the request logger; the cause never reaches the client.
func WriteError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, resp := ErrorResponse(err, RequestIDFromContext(c))
	if status >= http.StatusInternalServerError {
		logger.GetGinLogger(c).Error("request failed", zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, resp)
}
