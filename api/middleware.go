package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	contextUserIDKey = "userID"
	contextRoleKey   = "role"

	roleAdmin = "admin"
)

// AuthMiddleware validates the bearer token and stores the caller identity
// on the request context. Everything behind it trusts that identity.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "authorization header must be a bearer token")
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "invalid token claims")
			return
		}

		// JWT numbers decode as float64
		userID, ok := claims["user_id"].(float64)
		if !ok || userID <= 0 {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "token carries no user id")
			return
		}

		role, _ := claims["role"].(string)

		c.Set(contextUserIDKey, int64(userID))
		c.Set(contextRoleKey, role)

		c.Next()
	}
}

// AdminOnly rejects callers whose token does not carry the admin role
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(contextRoleKey)
		if !exists || role.(string) != roleAdmin {
			abortWithError(c, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		c.Next()
	}
}

func callerID(c *gin.Context) int64 {
	v, _ := c.Get(contextUserIDKey)
	id, _ := v.(int64)
	return id
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}
