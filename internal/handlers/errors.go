package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/middleware"
	"github.com/Saman-dev12/civic/internal/service"
)

// respondError maps an error to its HTTP status. Unclassified errors are
// logged and reported without detail.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
		return
	case errors.Is(err, service.ErrUserInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": "user_inactive"})
		return
	case errors.Is(err, service.ErrTooManyAttempts):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too_many_attempts"})
		return
	}

	switch lifecycle.Kind(err) {
	case lifecycle.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": err.Error()})
	case lifecycle.ErrForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": err.Error()})
	case lifecycle.ErrConflict:
		c.JSON(http.StatusConflict, gin.H{"error": "conflict", "message": err.Error()})
	case lifecycle.ErrInvalid:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
	default:
		h.log.Error().
			Err(err).
			Str("request_id", middleware.RequestIDFrom(c)).
			Str("route", c.FullPath()).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
}

// principal fetches the authenticated principal; the Auth middleware
// guarantees one on protected routes.
func principal(c *gin.Context) (lifecycle.Principal, bool) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return p, ok
}
