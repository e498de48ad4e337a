package middleware

import (
	"net/http"

	"github.com/MustafaxCmrt/Social-Network-sub000/auth"
	"github.com/gin-gonic/gin"
)

// GinAuthKey is the gin context key holding the *auth.AuthResult.
const GinAuthKey = "auth.result"

// GinGuard is Guard for gin. Public paths are matched against the full
// request path, not the route pattern.
func GinGuard(v Validator, opts Options) gin.HandlerFunc {
	g := newGuard(v, opts)
	return func(c *gin.Context) {
		if g.public(c.Request.URL.Path) {
			c.Next()
			return
		}

		res, status, msg := g.check(c.Request)
		if res == nil {
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		c.Set(GinAuthKey, res)
		c.Request = c.Request.WithContext(WithAuthResult(c.Request.Context(), res))
		c.Next()
	}
}

// GinAuthResult returns the result stored by GinGuard.
func GinAuthResult(c *gin.Context) (*auth.AuthResult, bool) {
	v, ok := c.Get(GinAuthKey)
	if !ok {
		return nil, false
	}
	res, ok := v.(*auth.AuthResult)
	return res, ok && res != nil
}

// GinRequireRole is RequireRole for gin.
func GinRequireRole(lookup RoleLookup, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, ok := GinAuthResult(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		allowed, err := hasRole(c.Request.Context(), lookup, res.AccountID, roles)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
