package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// IsAdminAuthorized reports whether an Authorization header value carries the
// configured admin token. An empty token never authorizes.
func IsAdminAuthorized(header, token string) bool {
	if token == "" || !strings.HasPrefix(header, bearerPrefix) {
		return false
	}
	presented := strings.TrimPrefix(header, bearerPrefix)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1
}

// Unauthorized writes the uniform 401 response and aborts the chain.
// Missing and wrong tokens are not distinguished.
func Unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
}

// AdminMiddleware rejects requests that do not present the admin bearer token
func AdminMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdminAuthorized(c.GetHeader("Authorization"), token) {
			Unauthorized(c)
			return
		}
		c.Next()
	}
}
