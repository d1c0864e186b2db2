package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
	domainerrors "user-directory.backend/internal/domain/errors"
	"user-directory.backend/pkg/crypto"
	"user-directory.backend/pkg/jwt"
	"user-directory.backend/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestCredentials(t *testing.T) *crypto.Credentials {
	t.Helper()
	hash, err := crypto.HashPasswordWithCost("secret", bcrypt.MinCost)
	require.NoError(t, err)
	creds, err := crypto.NewCredentials("admin", "", hash)
	require.NoError(t, err)
	return creds
}

func authRouter(creds *crypto.Credentials, tokens *jwt.JWTService) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(creds, tokens))
	r.GET("/me", func(c *gin.Context) {
		principal, _ := GetPrincipal(c)
		role, _ := GetRole(c)
		ctxPrincipal, _ := c.Request.Context().Value(logger.PrincipalKey).(string)
		c.JSON(http.StatusOK, gin.H{"principal": principal, "role": role, "ctx": ctxPrincipal})
	})
	return r
}

func TestAuthMiddleware_Basic(t *testing.T) {
	r := authRouter(newTestCredentials(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.SetBasicAuth("admin", "secret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"principal":"admin","role":"admin","ctx":"admin"}`, w.Body.String())
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tokens := jwt.NewJWTService("test-secret", time.Minute)
	expired, err := jwt.NewJWTService("test-secret", -time.Minute).GenerateToken("admin", RoleAdmin)
	require.NoError(t, err)
	foreign, err := jwt.NewJWTService("other-secret", time.Minute).GenerateToken("admin", RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name     string
		tokens   *jwt.JWTService
		header   string
		basic    []string
		wantCode string
	}{
		{name: "missing header", tokens: tokens, wantCode: domainerrors.CodeUnauthorized},
		{name: "unknown scheme", tokens: tokens, header: "Digest abc", wantCode: domainerrors.CodeUnauthorized},
		{name: "wrong password", tokens: tokens, basic: []string{"admin", "nope"}, wantCode: domainerrors.CodeInvalidCredentials},
		{name: "wrong user", tokens: tokens, basic: []string{"root", "secret"}, wantCode: domainerrors.CodeInvalidCredentials},
		{name: "expired token", tokens: tokens, header: "Bearer " + expired.AccessToken, wantCode: domainerrors.CodeUnauthorized},
		{name: "foreign token", tokens: tokens, header: "Bearer " + foreign.AccessToken, wantCode: domainerrors.CodeUnauthorized},
		{name: "bearer without token service", tokens: nil, header: "Bearer abc", wantCode: domainerrors.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := authRouter(newTestCredentials(t), tt.tokens)
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(AuthorizationHeader, tt.header)
			}
			if tt.basic != nil {
				req.SetBasicAuth(tt.basic[0], tt.basic[1])
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
			assert.Equal(t, basicRealm, w.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestAuthMiddleware_ExpiredTokenMessage(t *testing.T) {
	tokens := jwt.NewJWTService("test-secret", time.Minute)
	expired, err := jwt.NewJWTService("test-secret", -time.Minute).GenerateToken("admin", RoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(AuthorizationHeader, "Bearer "+expired.AccessToken)
	w := httptest.NewRecorder()
	authRouter(newTestCredentials(t), tokens).ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), "token has expired")
}

func TestAuthMiddleware_Bearer(t *testing.T) {
	tokens := jwt.NewJWTService("test-secret", time.Minute)
	tok, err := tokens.GenerateToken("svc-account", "reader")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(AuthorizationHeader, "Bearer "+tok.AccessToken)
	w := httptest.NewRecorder()
	authRouter(newTestCredentials(t), tokens).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"principal":"svc-account","role":"reader","ctx":"svc-account"}`, w.Body.String())
}

func TestBasicAuthMiddleware_IgnoresBearer(t *testing.T) {
	r := gin.New()
	r.Use(BasicAuthMiddleware(newTestCredentials(t)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(AuthorizationHeader, "Bearer abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetPrincipal_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetPrincipal(c)
	assert.False(t, ok)
	_, ok = GetRole(c)
	assert.False(t, ok)

	c.Set(PrincipalKey, 42)
	_, ok = GetPrincipal(c)
	assert.False(t, ok)
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/id", func(c *gin.Context) {
		fromCtx, _ := c.Request.Context().Value(logger.RequestIDKey).(string)
		c.String(http.StatusOK, c.GetString(RequestIDKey)+"|"+fromCtx)
	})

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123|abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))
	parts := strings.Split(w.Body.String(), "|")
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], 36)
	assert.Equal(t, parts[0], parts[1])

	req = httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36, "oversized ids are replaced")
}

func TestLoggerMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger.SetLogger(zap.New(core))
	t.Cleanup(func() { logger.SetLogger(nil) })

	r := gin.New()
	r.Use(RequestIDMiddleware(), LoggerMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusTeapot, "pong") })

	req := httptest.NewRequest(http.MethodGet, "/ping?x=1", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/ping?x=1", fields["path"])
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	assert.Equal(t, "rid-1", fields["request_id"])
}
