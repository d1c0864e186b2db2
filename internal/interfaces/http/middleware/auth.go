package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "user-directory.backend/internal/domain/errors"
	"user-directory.backend/internal/interfaces/http/response"
	"user-directory.backend/pkg/crypto"
	"user-directory.backend/pkg/jwt"
	"user-directory.backend/pkg/logger"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// PrincipalKey is the context key for the authenticated principal
	PrincipalKey = "principal"
	// RoleKey is the context key for the principal role
	RoleKey = "role"

	basicRealm = `Basic realm="user-directory"`
	// RoleAdmin is the role of the configured principal
	RoleAdmin = "admin"
)

// AuthMiddleware accepts HTTP basic credentials of the configured principal
// or a bearer token issued by tokens. A nil tokens allows basic only.
func AuthMiddleware(creds *crypto.Credentials, tokens *jwt.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)

		switch {
		case authHeader == "":
			reject(c, domainerrors.Unauthorized("authorization header is required"))
			return

		case strings.HasPrefix(authHeader, BearerPrefix) && tokens != nil:
			claims, err := tokens.ValidateToken(strings.TrimPrefix(authHeader, BearerPrefix))
			if err != nil {
				logger.Warn(c.Request.Context(), "Token rejected",
					zap.String("path", c.Request.URL.Path),
					zap.Error(err),
				)
				if errors.Is(err, jwt.ErrExpiredToken) {
					reject(c, domainerrors.FromError(domainerrors.ErrTokenExpired))
					return
				}
				reject(c, domainerrors.Unauthorized("invalid token"))
				return
			}
			setPrincipal(c, claims.Subject, claims.Role)

		default:
			user, password, ok := c.Request.BasicAuth()
			if !ok {
				reject(c, domainerrors.Unauthorized("unsupported authorization scheme"))
				return
			}
			if !creds.Verify(user, password) {
				logger.Warn(c.Request.Context(), "Basic credentials rejected",
					zap.String("path", c.Request.URL.Path),
					zap.String("user", user),
				)
				reject(c, domainerrors.FromError(domainerrors.ErrInvalidCredentials))
				return
			}
			setPrincipal(c, user, RoleAdmin)
		}

		c.Next()
	}
}

// BasicAuthMiddleware only accepts the configured basic credentials
func BasicAuthMiddleware(creds *crypto.Credentials) gin.HandlerFunc {
	return AuthMiddleware(creds, nil)
}

// GetPrincipal returns the authenticated principal from context
func GetPrincipal(c *gin.Context) (string, bool) {
	principal, exists := c.Get(PrincipalKey)
	if !exists {
		return "", false
	}
	s, ok := principal.(string)
	return s, ok
}

// GetRole returns the role of the authenticated principal
func GetRole(c *gin.Context) (string, bool) {
	role, exists := c.Get(RoleKey)
	if !exists {
		return "", false
	}
	s, ok := role.(string)
	return s, ok
}

func setPrincipal(c *gin.Context, principal, role string) {
	c.Set(PrincipalKey, principal)
	c.Set(RoleKey, role)
	ctx := context.WithValue(c.Request.Context(), logger.PrincipalKey, principal)
	c.Request = c.Request.WithContext(ctx)
}

func reject(c *gin.Context, err *domainerrors.AppError) {
	if err.Status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", basicRealm)
	}
	response.Error(c, err)
	c.Abort()
}
