package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bankprofile/internal/domain/identity"
	"bankprofile/internal/pkg/jwt"
	"bankprofile/internal/pkg/response"
)

// JWTAuth validates the bearer token and exposes the caller's identity as
// gin keys ("user_id", "email") and on the request context.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Missing Authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), identity.Identity{
			ID:    claims.UserID,
			Email: claims.Email,
		}))

		c.Next()
	}
}
