package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	RespondWithJSON(rec, req, http.StatusCreated, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "world", body["hello"])
}

func TestRespondWithError(t *testing.T) {
	t.Run("includes trace ID from context", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		ctx := context.WithValue(req.Context(), TraceIDKey, "abc123")

		RespondWithError(rec, req.WithContext(ctx), http.StatusNotFound, "Not found")

		assert.Equal(t, http.StatusNotFound, rec.Code)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Not found", body.Error)
		assert.Equal(t, "abc123", body.TraceID)
	})

	t.Run("omits trace ID when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)

		RespondWithError(rec, req, http.StatusBadRequest, "Bad request")

		assert.NotContains(t, rec.Body.String(), "trace_id")
	})

	t.Run("status code is not serialized", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)

		RespondWithError(rec, req, http.StatusConflict, "Conflict")

		var raw map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
		_, has := raw["Code"]
		assert.False(t, has)
		_, has = raw["code"]
		assert.False(t, has)
	})
}

func TestRespondWithErrorAndLog(t *testing.T) {
	t.Run("raw error never reaches the body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		internal := errors.New("pq: connection to postgres://user:secret@db failed")

		RespondWithErrorAndLog(rec, req, http.StatusInternalServerError, "Internal server error", internal)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret")
		assert.NotContains(t, rec.Body.String(), "postgres://")

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Internal server error", body.Error)
	})

	t.Run("handles a nil error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)

		RespondWithErrorAndLog(rec, req, http.StatusForbidden, "Forbidden", nil)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
