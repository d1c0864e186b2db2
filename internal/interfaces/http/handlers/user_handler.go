package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"user-directory.backend/internal/domain/entities"
	domainerrors "user-directory.backend/internal/domain/errors"
	"user-directory.backend/internal/interfaces/http/response"
	"user-directory.backend/internal/usecases"
)

const maxBodyBytes = 1 << 20

var errNotObject = domainerrors.Reject("body", "request body must be a JSON object")

type userService interface {
	CreateUser(ctx context.Context, payload entities.Payload) (*entities.User, error)
	GetUser(ctx context.Context, rawID string) (*entities.User, error)
	UpdateUser(ctx context.Context, rawID string, payload entities.Payload) (*entities.User, error)
}

// UserHandler handles user directory endpoints
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userUsecase *usecases.UserUsecase) *UserHandler {
	return &UserHandler{service: userUsecase}
}

// CreateUser creates a user record
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	payload, err := decodePayload(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, entities.NewUserResponse(user))
}

// GetUser returns one user record
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, entities.NewUserResponse(user))
}

// UpdateUser applies a partial update keyed by new_<field>
// PATCH /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	payload, err := decodePayload(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), c.Param("id"), payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, entities.NewUserResponse(user))
}

// decodePayload reads exactly one JSON object from the body. Numbers stay
// json.Number so integers keep full precision.
func decodePayload(c *gin.Context) (entities.Payload, error) {
	if c.Request.Body == nil {
		return nil, errNotObject
	}

	dec := json.NewDecoder(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domainerrors.Reject("body", "request body is too large")
		}
		return nil, errNotObject
	}
	if err := dec.Decode(new(interface{})); !errors.Is(err, io.EOF) {
		return nil, errNotObject
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errNotObject
	}
	return entities.Payload(obj), nil
}
