package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"user-directory.backend/internal/config"
	"user-directory.backend/internal/domain/entities"
	domainerrors "user-directory.backend/internal/domain/errors"
	"user-directory.backend/internal/infrastructure/datasources/database"
	"user-directory.backend/internal/infrastructure/messaging"
	"user-directory.backend/internal/infrastructure/repositories"
	"user-directory.backend/internal/usecases"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type userServiceStub struct {
	createFn func(context.Context, entities.Payload) (*entities.User, error)
	getFn    func(context.Context, string) (*entities.User, error)
	updateFn func(context.Context, string, entities.Payload) (*entities.User, error)
	calls    int
}

func (s *userServiceStub) CreateUser(ctx context.Context, p entities.Payload) (*entities.User, error) {
	s.calls++
	return s.createFn(ctx, p)
}

func (s *userServiceStub) GetUser(ctx context.Context, id string) (*entities.User, error) {
	s.calls++
	return s.getFn(ctx, id)
}

func (s *userServiceStub) UpdateUser(ctx context.Context, id string, p entities.Payload) (*entities.User, error) {
	s.calls++
	return s.updateFn(ctx, id, p)
}

func userRouter(h *UserHandler) *gin.Engine {
	r := gin.New()
	r.POST("/api/v1/users", h.CreateUser)
	r.GET("/api/v1/users/:id", h.GetUser)
	r.PATCH("/api/v1/users/:id", h.UpdateUser)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func newSQLiteRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := database.NewConnection(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano()),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, false))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := repositories.NewUserRepository(db)
	uc := usecases.NewUserUsecase(repo, repositories.NewUnitOfWork(db), messaging.NoopPublisher{})
	return userRouter(NewUserHandler(uc))
}

func TestUserHandler_Scenarios(t *testing.T) {
	r := newSQLiteRouter(t)

	// create without contacts
	w := doJSON(r, http.MethodPost, "/api/v1/users", `{"id":"u1","gender":"f","gender_search":"m","birthday":"1990-01-01"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "u1", body["id"])
	assert.Equal(t, float64(0), body["balance"])
	assert.Nil(t, body["username"])
	assert.Nil(t, body["email"])
	assert.Nil(t, body["phone"])
	assert.Equal(t, "1990-01-01", body["birthday"])

	// duplicate identifier
	w = doJSON(r, http.MethodPost, "/api/v1/users", `{"id":"u1","gender":"f","gender_search":"m","birthday":"1990-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, "identifier already used", body["message"])
	assert.Equal(t, "id", body["field"])

	// duplicate username
	w = doJSON(r, http.MethodPost, "/api/v1/users", `{"id":"u2","username":"alice","gender":"f","gender_search":"m","birthday":"1991-02-02"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = doJSON(r, http.MethodPost, "/api/v1/users", `{"id":"u3","username":"alice","gender":"f","gender_search":"m","birthday":"1991-02-02"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "username already used", decodeBody(t, w)["message"])

	// partial update keeps untouched fields
	w = doJSON(r, http.MethodPatch, "/api/v1/users/u2", `{"new_balance":50}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = doJSON(r, http.MethodGet, "/api/v1/users/u2", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, float64(50), body["balance"])
	assert.Equal(t, "alice", body["username"])

	// unknown identifier
	w = doJSON(r, http.MethodGet, "/api/v1/users/zzz", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domainerrors.CodeNotFound, decodeBody(t, w)["code"])

	w = doJSON(r, http.MethodPatch, "/api/v1/users/zzz", `{"new_balance":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserHandler_LargeIntegersAreExact(t *testing.T) {
	r := newSQLiteRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/users", `{"id":"big","gender":"f","gender_search":"m","birthday":"1990-01-01","balance":9007199254740993}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"balance":9007199254740993`)

	w = doJSON(r, http.MethodPost, "/api/v1/users", `{"id":"frac","gender":"f","gender_search":"m","birthday":"1990-01-01","balance":1.5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "balance", decodeBody(t, w)["field"])
}

func TestUserHandler_RejectsNonObjectBodies(t *testing.T) {
	stub := &userServiceStub{}
	r := userRouter(&UserHandler{service: stub})

	bodies := []string{"", "null", "[1,2]", `"text"`, "42", "{not json", `{"id":"a"} {"id":"b"}`}
	for _, b := range bodies {
		for _, target := range []struct{ method, path string }{
			{http.MethodPost, "/api/v1/users"},
			{http.MethodPatch, "/api/v1/users/u1"},
		} {
			w := doJSON(r, target.method, target.path, b)
			assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", b)
			body := decodeBody(t, w)
			assert.Equal(t, "body", body["field"])
			assert.Equal(t, "request body must be a JSON object", body["message"])
		}
	}
	assert.Zero(t, stub.calls)
}

func TestUserHandler_BodyTooLarge(t *testing.T) {
	stub := &userServiceStub{}
	r := userRouter(&UserHandler{service: stub})

	big := `{"id":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	w := doJSON(r, http.MethodPost, "/api/v1/users", big)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "request body is too large", decodeBody(t, w)["message"])
	assert.Zero(t, stub.calls)
}

func TestUserHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"conflict", &domainerrors.ConflictError{Field: "email"}, http.StatusConflict, domainerrors.CodeConflict},
		{"store down", fmt.Errorf("query: %w", domainerrors.ErrStoreUnavailable), http.StatusServiceUnavailable, domainerrors.CodeStoreUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, domainerrors.CodeInternal},
		{"rejection", domainerrors.Reject("new_email", "new_email already used"), http.StatusBadRequest, domainerrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &userServiceStub{
				createFn: func(context.Context, entities.Payload) (*entities.User, error) { return nil, tt.err },
				updateFn: func(context.Context, string, entities.Payload) (*entities.User, error) { return nil, tt.err },
			}
			r := userRouter(&UserHandler{service: stub})

			for _, w := range []*httptest.ResponseRecorder{
				doJSON(r, http.MethodPost, "/api/v1/users", `{}`),
				doJSON(r, http.MethodPatch, "/api/v1/users/u1", `{}`),
			} {
				assert.Equal(t, tt.status, w.Code)
				assert.Equal(t, tt.code, decodeBody(t, w)["code"])
			}
		})
	}
}

func TestUserHandler_PassesPayloadThrough(t *testing.T) {
	var gotID string
	var gotPayload entities.Payload
	stored := &entities.User{
		ID:       "u1",
		Username: null.StringFrom("bob"),
		Gender:   "m",
		Birthday: time.Date(2000, 5, 6, 0, 0, 0, 0, time.UTC),
	}
	stub := &userServiceStub{
		updateFn: func(_ context.Context, id string, p entities.Payload) (*entities.User, error) {
			gotID, gotPayload = id, p
			return stored, nil
		},
		getFn: func(_ context.Context, id string) (*entities.User, error) {
			gotID = id
			return stored, nil
		},
	}
	r := userRouter(&UserHandler{service: stub})

	w := doJSON(r, http.MethodPatch, "/api/v1/users/U1", `{"new_balance":7,"new_email":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "U1", gotID)
	assert.Equal(t, json.Number("7"), gotPayload["new_balance"])
	assert.Contains(t, gotPayload, "new_email")
	assert.Nil(t, gotPayload["new_email"])

	w = doJSON(r, http.MethodGet, "/api/v1/users/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "bob", body["username"])
	assert.Equal(t, "2000-05-06", body["birthday"])
}
