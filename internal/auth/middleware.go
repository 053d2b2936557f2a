package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sjohnston82/tome-tracker1/internal/config"
	"github.com/sjohnston82/tome-tracker1/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
	ContextKeyAuthType = "auth_type" // "bearer" or "none"
)

// AuthType indicates how the user was authenticated
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBearer AuthType = "bearer"
)

// TokenResolver finds the user owning an API token.
type TokenResolver interface {
	GetByToken(ctx context.Context, token string) (*entities.User, error)
}

// Middleware handles authentication for HTTP requests.
type Middleware struct {
	config      config.Auth
	users       TokenResolver
	defaultUser *entities.User
	publicPaths map[string]bool
}

// NewMiddleware creates a new authentication middleware. defaultUser is
// required in "none" mode and ignored otherwise.
func NewMiddleware(cfg config.Auth, users TokenResolver, defaultUser *entities.User) *Middleware {
	return &Middleware{
		config:      cfg,
		users:       users,
		defaultUser: defaultUser,
		publicPaths: map[string]bool{
			"/health": true,
			"/ping":   true,
		},
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.config.Mode == config.AuthModeNone {
		return m.noAuthHandler()
	}
	return m.tokenHandler()
}

// noAuthHandler runs every request as the default user.
func (m *Middleware) noAuthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.defaultUser != nil {
			setUserContext(c, m.defaultUser, AuthTypeNone)
		}
		c.Next()
	}
}

func (m *Middleware) tokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.publicPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		user := m.tryBearerAuth(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
				"code":  "UNAUTHORIZED",
			})
			return
		}

		setUserContext(c, user, AuthTypeBearer)
		c.Next()
	}
}

// tryBearerAuth attempts to authenticate using Bearer token.
func (m *Middleware) tryBearerAuth(c *gin.Context) *entities.User {
	token, ok := BearerToken(c.GetHeader("Authorization"))
	if !ok || m.users == nil {
		return nil
	}

	user, err := m.users.GetByToken(c.Request.Context(), token)
	if err != nil {
		return nil
	}
	return user
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func setUserContext(c *gin.Context, user *entities.User, authType AuthType) {
	c.Set(ContextKeyUserID, user.ID)
	c.Set(ContextKeyUsername, user.Username)
	c.Set(ContextKeyAuthType, authType)
}

// RequireUser aborts requests that reached a handler without an identity.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
				"code":  "UNAUTHORIZED",
			})
			return
		}
		c.Next()
	}
}

// GetUserID retrieves the authenticated user's ID from the context, or "".
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

// GetUsername retrieves the authenticated user's username from the context.
func GetUsername(c *gin.Context) string {
	return c.GetString(ContextKeyUsername)
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeNone
}
