package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/sjohnston82/tome-tracker1/internal/config"
	"github.com/sjohnston82/tome-tracker1/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeTokens map[string]*entities.User

func (f fakeTokens) GetByToken(ctx context.Context, token string) (*entities.User, error) {
	if u, ok := f[token]; ok {
		return u, nil
	}
	return nil, errors.New("record not found")
}

func newRouter(mw *Middleware) *gin.Engine {
	router := gin.New()
	router.Use(mw.Handler())
	router.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/api/whoami", RequireUser(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":   GetUserID(c),
			"username":  GetUsername(c),
			"auth_type": GetAuthType(c),
		})
	})
	return router
}

func TestMiddleware_NoAuthMode(t *testing.T) {
	user := &entities.User{ID: "default-id", Username: "default"}
	router := newRouter(NewMiddleware(config.Auth{Mode: config.AuthModeNone}, nil, user))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/whoami", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"user_id":"default-id","username":"default","auth_type":"none"}`, rr.Body.String())
}

func TestMiddleware_TokenMode(t *testing.T) {
	tokens := fakeTokens{"secret": {ID: "u1", Username: "reader"}}
	router := newRouter(NewMiddleware(config.Auth{Mode: config.AuthModeToken}, tokens, nil))

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"valid token", "/api/whoami", "Bearer secret", http.StatusOK},
		{"scheme is case-insensitive", "/api/whoami", "bearer secret", http.StatusOK},
		{"unknown token", "/api/whoami", "Bearer nope", http.StatusUnauthorized},
		{"missing header", "/api/whoami", "", http.StatusUnauthorized},
		{"wrong scheme", "/api/whoami", "Basic secret", http.StatusUnauthorized},
		{"public path", "/health", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, rr.Body.String(), `"code":"UNAUTHORIZED"`)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer  abc ")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	_, ok = BearerToken("Bearer")
	assert.False(t, ok)
	_, ok = BearerToken("Bearer   ")
	assert.False(t, ok)
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware(), StrictTransportSecurityMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rr.Header().Get("Strict-Transport-Security"))

	plain := httptest.NewRecorder()
	router.ServeHTTP(plain, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, plain.Header().Get("Strict-Transport-Security"))
}
