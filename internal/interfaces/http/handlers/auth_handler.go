package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "user-directory.backend/internal/domain/errors"
	"user-directory.backend/internal/interfaces/http/middleware"
	"user-directory.backend/internal/interfaces/http/response"
	"user-directory.backend/pkg/jwt"
	"user-directory.backend/pkg/logger"
)

type tokenIssuer interface {
	GenerateToken(subject, role string) (*jwt.Token, error)
}

// AuthHandler issues access tokens
type AuthHandler struct {
	tokens tokenIssuer
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(jwtService *jwt.JWTService) *AuthHandler {
	return &AuthHandler{tokens: jwtService}
}

// IssueToken exchanges basic credentials for a bearer token
// POST /api/v1/auth/token
func (h *AuthHandler) IssueToken(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		response.Error(c, domainerrors.ErrUnauthorized)
		return
	}
	role, _ := middleware.GetRole(c)

	token, err := h.tokens.GenerateToken(principal, role)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to issue token", zap.Error(err))
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, token)
}
