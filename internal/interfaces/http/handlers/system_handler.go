package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "user-directory.backend/internal/domain/errors"
	"user-directory.backend/internal/interfaces/http/response"
	"user-directory.backend/pkg/logger"
)

// Greeting is the body of the root routes
const Greeting = "Hello it api server!"

const healthTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves greeting, health and shutdown routes
type SystemHandler struct {
	store    pinger
	shutdown func()
}

// NewSystemHandler creates a system handler. shutdown is called once by
// the shutdown route; nil disables it.
func NewSystemHandler(store pinger, shutdown func()) *SystemHandler {
	return &SystemHandler{store: store, shutdown: shutdown}
}

// Home greets the caller
// GET / and GET /home
func (h *SystemHandler) Home(c *gin.Context) {
	c.String(http.StatusOK, Greeting)
}

// Health reports whether the store is reachable
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logger.Warn(c.Request.Context(), "Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}

// Shutdown requests a graceful stop of the server
// POST /shutdown
func (h *SystemHandler) Shutdown(c *gin.Context) {
	if h.shutdown == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, domainerrors.CodeNotFound, "shutdown is disabled")
		return
	}
	logger.Info(c.Request.Context(), "Shutdown requested")
	h.shutdown()
	c.String(http.StatusOK, "Server shutting down...")
}
