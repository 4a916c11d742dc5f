package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskwire-api/internal/api"
	"github.com/phrazzld/taskwire-api/internal/domain"
	"github.com/phrazzld/taskwire-api/internal/mocks"
	"github.com/phrazzld/taskwire-api/internal/service"
	"github.com/phrazzld/taskwire-api/internal/service/auth"
)

type authHandlerFixture struct {
	router     *chi.Mux
	userStore  *mocks.MockUserStore
	jwtService *mocks.MockJWTService
	verifier   *mocks.MockPasswordVerifier
}

func newAuthHandlerFixture(t *testing.T) *authHandlerFixture {
	t.Helper()

	userStore := mocks.NewMockUserStore()
	userService, err := service.NewUserService(userStore, slog.Default())
	require.NoError(t, err)

	jwtService := &mocks.MockJWTService{
		Token:        "access-token",
		RefreshToken: "refresh-token",
	}
	verifier := &mocks.MockPasswordVerifier{ShouldSucceed: true}

	handler := api.NewAuthHandler(userService, userStore, jwtService, verifier, time.Hour)

	router := chi.NewRouter()
	router.Post("/api/auth/register", handler.Register)
	router.Post("/api/auth/login", handler.Login)
	router.Post("/api/auth/refresh", handler.RefreshToken)

	return &authHandlerFixture{
		router:     router,
		userStore:  userStore,
		jwtService: jwtService,
		verifier:   verifier,
	}
}

func (f *authHandlerFixture) post(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("creates user and returns token pair", func(t *testing.T) {
		t.Parallel()
		f := newAuthHandlerFixture(t)

		rec := f.post(t, "/api/auth/register", map[string]string{
			"username": "alice",
			"password": "a long enough password",
		})

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp api.AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "access-token", resp.AccessToken)
		assert.Equal(t, "refresh-token", resp.RefreshToken)
		assert.NotEqual(t, uuid.Nil, resp.UserID)
		assert.NotEmpty(t, resp.ExpiresAt)

		assert.Contains(t, f.userStore.Users, "alice")
	})

	t.Run("rejects short password", func(t *testing.T) {
		t.Parallel()
		f := newAuthHandlerFixture(t)

		rec := f.post(t, "/api/auth/register", map[string]string{
			"username": "alice",
			"password": "short",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		t.Parallel()
		f := newAuthHandlerFixture(t)

		req := httptest.NewRequest(
			http.MethodPost,
			"/api/auth/register",
			bytes.NewReader([]byte("{not json")),
		)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		t.Parallel()
		f := newAuthHandlerFixture(t)

		body := map[string]string{
			"username": "alice",
			"password": "a long enough password",
		}
		require.Equal(t, http.StatusCreated, f.post(t, "/api/auth/register", body).Code)
		assert.Equal(t, http.StatusConflict, f.post(t, "/api/auth/register", body).Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Parallel()

	registeredUser := func(t *testing.T, f *authHandlerFixture) *domain.User {
		t.Helper()
		user, err := domain.NewUser("alice", "a long enough password")
		require.NoError(t, err)
		user.HashedPassword = "$2a$10$fakehash"
		f.userStore.Users["alice"] = user
		return user
	}

	t.Run("valid credentials return token pair", func(t *testing.T) {
		t.Parallel()
		f := newAuthHandlerFixture(t)
		user := registeredUser(t, f)

		rec := f.post(t, "/api/auth/login", map[string]string{
			"username": "alice",
			"password": "a long enough password",
		})

		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, user.ID, resp.UserID)
		assert.Equal(t, "access-token", resp.AccessToken)
		assert.Equal(t, 1, f.verifier.CompareCallCount)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		t.Parallel()
		f := newAuthHandlerFixture(t)
		registeredUser(t, f)
		f.verifier.ShouldSucceed = false

		rec := f.post(t, "/api/auth/login", map[string]string{
			"username": "alice",
			"password": "wrong password",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown user is unauthorized, not 404", func(t *testing.T) {
		t.Parallel()
		f := newAuthHandlerFixture(t)

		rec := f.post(t, "/api/auth/login", map[string]string{
			"username": "ghost",
			"password": "irrelevant password",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("valid refresh token returns new pair", func(t *testing.T) {
		t.Parallel()
		f := newAuthHandlerFixture(t)
		userID := uuid.New()
		f.jwtService.Claims = &auth.Claims{UserID: userID}

		rec := f.post(t, "/api/auth/refresh", map[string]string{
			"refresh_token": "some-refresh-token",
		})

		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.RefreshTokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "access-token", resp.AccessToken)
		assert.Equal(t, "refresh-token", resp.RefreshToken)
	})

	t.Run("invalid refresh token is unauthorized", func(t *testing.T) {
		t.Parallel()
		f := newAuthHandlerFixture(t)
		f.jwtService.ValidateRefreshTokenFn = func(ctx context.Context, tokenString string) (*auth.Claims, error) {
			return nil, auth.ErrInvalidRefreshToken
		}

		rec := f.post(t, "/api/auth/refresh", map[string]string{
			"refresh_token": "bad-token",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing refresh token is a bad request", func(t *testing.T) {
		t.Parallel()
		f := newAuthHandlerFixture(t)

		rec := f.post(t, "/api/auth/refresh", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
