package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/club-pos/services"
	"github.com/yeremiapane/club-pos/utils"
)

// RequireRoles lets the request through when the caller holds one of roles.
// Admins always pass.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if actor.UserID == 0 {
			utils.AbortError(c, http.StatusUnauthorized, utils.ErrInvalidToken)
			return
		}
		if !actor.Can(roles...) {
			utils.AbortError(c, http.StatusForbidden, services.ErrForbidden)
			return
		}
		c.Next()
	}
}
