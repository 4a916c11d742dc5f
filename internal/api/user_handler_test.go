package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskwire-api/internal/api"
	"github.com/phrazzld/taskwire-api/internal/api/shared"
	"github.com/phrazzld/taskwire-api/internal/domain"
	"github.com/phrazzld/taskwire-api/internal/mocks"
	"github.com/phrazzld/taskwire-api/internal/service"
)

type userHandlerFixture struct {
	router    *chi.Mux
	userStore *mocks.MockUserStore
}

func newUserHandlerFixture(t *testing.T) *userHandlerFixture {
	t.Helper()

	userStore := mocks.NewMockUserStore()

	userService, err := service.NewUserService(userStore, slog.Default())
	require.NoError(t, err)

	handler := api.NewUserHandler(userService, slog.Default())

	router := chi.NewRouter()
	router.Get("/api/users/me", handler.GetMe)
	router.Put("/api/users/me", handler.UpdateMe)

	return &userHandlerFixture{
		router:    router,
		userStore: userStore,
	}
}

func (f *userHandlerFixture) addUser(t *testing.T, username string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(username, "test-password-123")
	require.NoError(t, err)
	f.userStore.Users[username] = user
	return user
}

func (f *userHandlerFixture) do(
	t *testing.T,
	method, path string,
	principalID uuid.UUID,
	body interface{},
) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), shared.UserIDContextKey, principalID)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func TestGetMeEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("returns the caller's profile", func(t *testing.T) {
		t.Parallel()
		f := newUserHandlerFixture(t)
		alice := f.addUser(t, "alice")

		rec := f.do(t, http.MethodGet, "/api/users/me", alice.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.UserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, alice.ID, resp.ID)
		assert.Equal(t, "alice", resp.Username)
		assert.False(t, resp.IsStaff)
	})

	t.Run("never exposes password material", func(t *testing.T) {
		t.Parallel()
		f := newUserHandlerFixture(t)
		alice := f.addUser(t, "alice")
		alice.HashedPassword = "$2a$10$somethingsecret"

		rec := f.do(t, http.MethodGet, "/api/users/me", alice.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "password")
		assert.NotContains(t, rec.Body.String(), "somethingsecret")
	})

	t.Run("returns 404 for a principal with no record", func(t *testing.T) {
		t.Parallel()
		f := newUserHandlerFixture(t)

		rec := f.do(t, http.MethodGet, "/api/users/me", uuid.New(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("returns 401 without a principal", func(t *testing.T) {
		t.Parallel()
		f := newUserHandlerFixture(t)

		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestUpdateMeEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("renames the caller", func(t *testing.T) {
		t.Parallel()
		f := newUserHandlerFixture(t)
		alice := f.addUser(t, "alice")

		newName := "alice-renamed"
		rec := f.do(t, http.MethodPut, "/api/users/me", alice.ID, api.UpdateUserRequest{
			Username: &newName,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.UserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "alice-renamed", resp.Username)

		stored, err := f.userStore.GetByUsername(context.Background(), "alice-renamed")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, stored.ID)
	})

	t.Run("rejects renaming to a taken username", func(t *testing.T) {
		t.Parallel()
		f := newUserHandlerFixture(t)
		alice := f.addUser(t, "alice")
		f.addUser(t, "bob")

		taken := "bob"
		rec := f.do(t, http.MethodPut, "/api/users/me", alice.ID, api.UpdateUserRequest{
			Username: &taken,
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("rejects a short password", func(t *testing.T) {
		t.Parallel()
		f := newUserHandlerFixture(t)
		alice := f.addUser(t, "alice")

		short := "short"
		rec := f.do(t, http.MethodPut, "/api/users/me", alice.ID, api.UpdateUserRequest{
			Password: &short,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		t.Parallel()
		f := newUserHandlerFixture(t)
		alice := f.addUser(t, "alice")

		req := httptest.NewRequest(http.MethodPut, "/api/users/me", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		ctx := context.WithValue(req.Context(), shared.UserIDContextKey, alice.ID)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req.WithContext(ctx))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns 401 without a principal", func(t *testing.T) {
		t.Parallel()
		f := newUserHandlerFixture(t)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/users/me", bytes.NewReader([]byte("{}")))
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
