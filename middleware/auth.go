package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Novicer18/lexadvisor/models"
	"github.com/Novicer18/lexadvisor/session"
)

const identityKey = "identity"

// Authenticate verifies the bearer token and stores the resolved identity on
// the request context.
func Authenticate(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHENTICATED",
					"message": "No authorization header",
				},
			})
			c.Abort()
			return
		}

		// Remove "Bearer " prefix if present
		if len(tokenString) > 7 && strings.ToLower(tokenString[:7]) == "bearer " {
			tokenString = tokenString[7:]
		}

		ident, err := store.Resolve(c.Request.Context(), tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Invalid or expired session token",
				},
			})
			c.Abort()
			return
		}

		c.Set(identityKey, ident)
		c.Next()
	}
}

// RequireRole rejects requests whose resolved role is not in the allowed set.
// This is an advisory gate for friendly errors; repositories enforce the same
// rules in SQL.
func RequireRole(allowed ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := IdentityFrom(c)
		if ident != nil {
			for _, role := range allowed {
				if ident.Role == role {
					c.Next()
					return
				}
			}
		}
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Your role does not permit this action",
			},
		})
		c.Abort()
	}
}

// IdentityFrom returns the identity resolved by Authenticate, or nil
func IdentityFrom(c *gin.Context) *session.Identity {
	if v, ok := c.Get(identityKey); ok {
		if ident, ok := v.(*session.Identity); ok {
			return ident
		}
	}
	return nil
}
