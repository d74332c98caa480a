package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Allow reports whether role is one of required. It is the single access
// decision point; handlers never inspect roles for authorization.
func Allow(role string, required ...string) bool {
	if role == "" {
		return false
	}
	for _, r := range required {
		if role == r {
			return true
		}
	}
	return false
}

// RequireAnyRole must run after RequireAuth.
func RequireAnyRole(required ...string) gin.HandlerFunc {
	message := strings.Join(required, " or ") + " role required"

	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)

		if !ok || role == "" {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}
		if !Allow(role, required...) {
			abortError(c, http.StatusForbidden, "forbidden", message)
			return
		}
		c.Next()
	}
}
