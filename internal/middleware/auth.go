package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/models"
	"github.com/Saman-dev12/civic/internal/security"
)

const (
	ctxAccessClaims = "access_claims"
	ctxCurrentUser  = "current_user"
)

type SessionStore interface {
	GetByID(ctx context.Context, id string) (models.Session, error)
	DeleteByID(ctx context.Context, id string) error
	Touch(ctx context.Context, sessionID string, ip string, userAgent string) error
}

type UserStore interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

// IdlePolicy returns how long a session may go unused. Zero disables the
// check.
type IdlePolicy interface {
	SessionTimeout() time.Duration
}

type AuthConfig struct {
	Secret   string
	Users    UserStore
	Sessions SessionStore
	Idle     IdlePolicy
	Now      func() time.Time
}

// Auth resolves the bearer token to an active user and a live session.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := security.ParseAccessToken(tokenStr, cfg.Secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		ctx := c.Request.Context()
		session, err := cfg.Sessions.GetByID(ctx, claims.SessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_not_found"})
			return
		}
		if session.UserID != claims.UserID || session.DeviceID != claims.DeviceID {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_mismatch"})
			return
		}

		current := now()
		if current.After(session.ExpiresAt) || idleExpired(cfg.Idle, session, current) {
			_ = cfg.Sessions.DeleteByID(ctx, session.ID)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_expired"})
			return
		}

		user, err := cfg.Users.GetByID(ctx, claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_not_found"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user_inactive"})
			return
		}

		_ = cfg.Sessions.Touch(ctx, session.ID, c.ClientIP(), c.GetHeader("User-Agent"))

		c.Set(ctxAccessClaims, *claims)
		c.Set(ctxCurrentUser, user)
		c.Next()
	}
}

func idleExpired(policy IdlePolicy, session models.Session, now time.Time) bool {
	if policy == nil {
		return false
	}
	timeout := policy.SessionTimeout()
	return timeout > 0 && now.Sub(session.LastSeenAt) > timeout
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(ctxCurrentUser)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

func CurrentClaims(c *gin.Context) (security.AccessClaims, bool) {
	v, ok := c.Get(ctxAccessClaims)
	if !ok {
		return security.AccessClaims{}, false
	}
	claims, ok := v.(security.AccessClaims)
	return claims, ok
}

// CurrentPrincipal returns the lifecycle principal for the authenticated
// user.
func CurrentPrincipal(c *gin.Context) (lifecycle.Principal, bool) {
	user, ok := CurrentUser(c)
	if !ok {
		return lifecycle.Principal{}, false
	}
	return lifecycle.PrincipalFromUser(user), true
}
