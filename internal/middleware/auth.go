package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/civicreport/api/internal/auth"
	"github.com/civicreport/api/internal/session"
	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	KeyUserID    = "userID"
	KeyUserEmail = "userEmail"
	KeyUserName  = "userName"
	KeyUserRole  = "userRole"
	KeySession   = "session"
)

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware requires a valid JWT and attaches the caller's session.
// Browsers cannot set headers on websocket upgrades, so a "token" query
// parameter is accepted as well.
func AuthMiddleware(jwtSecret string, sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			token = c.Query("token")
		}
		if token == "" {
			if c.GetHeader("Authorization") == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			}
			c.Abort()
			return
		}

		claims, err := auth.ValidateAccessToken(token, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		sess, err := sessions.Resume(c.Request.Context(), claims)
		if err != nil {
			log.Printf("Failed to resume session %s: %v", claims.SessionID, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session unavailable"})
			c.Abort()
			return
		}

		// Set user info in context
		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyUserEmail, claims.Email)
		c.Set(KeyUserName, claims.Name)
		c.Set(KeyUserRole, claims.Role)
		c.Set(KeySession, sess)

		c.Next()
	}
}

// RequireAction rejects callers whose role may not perform action.
// Must run after AuthMiddleware.
func RequireAction(action auth.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(KeyUserRole)
		if role == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "role not found"})
			c.Abort()
			return
		}

		if !auth.Allowed(role, action) {
			c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func CurrentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(KeySession)
	if !ok {
		return nil
	}
	s, _ := v.(*session.Session)
	return s
}
