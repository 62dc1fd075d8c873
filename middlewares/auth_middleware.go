package middlewares

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/club-pos/services"
	"github.com/yeremiapane/club-pos/utils"
)

// Context keys set by AuthMiddleware.
const (
	CtxUserID    = "user_id"
	CtxRole      = "role"
	CtxToken     = "token"
	CtxTokenExp  = "token_expires_at"
	TokenCookie  = "token"
	bearerPrefix = "Bearer "
)

// AuthMiddleware accepts a JWT from the Authorization header or the token
// cookie. allowQuery also accepts ?token=, which browsers need for WebSocket
// upgrades.
func AuthMiddleware(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c, allowQuery)
		if tokenString == "" {
			utils.AbortError(c, http.StatusUnauthorized, errors.New("authentication required"))
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil || claims.UserID == 0 {
			utils.AbortError(c, http.StatusUnauthorized, utils.ErrInvalidToken)
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxToken, tokenString)
		if claims.ExpiresAt != nil {
			c.Set(CtxTokenExp, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}

func extractToken(c *gin.Context, allowQuery bool) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie
	}
	if allowQuery {
		return c.Query("token")
	}
	return ""
}

// ActorFrom builds the service-layer caller from the authenticated request.
// An unauthenticated request yields the zero Actor, which every guarded
// service call rejects.
func ActorFrom(c *gin.Context) services.Actor {
	return services.Actor{
		UserID: c.GetUint(CtxUserID),
		Role:   c.GetString(CtxRole),
	}
}

// TokenExpiry is when the request's token stops being valid.
func TokenExpiry(c *gin.Context) time.Time {
	if v, ok := c.Get(CtxTokenExp); ok {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Now().Add(utils.TokenTTL())
}
