package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h *Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.Register(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestLiveness(t *testing.T) {
	rr := serve(t, New("test"), "/health/live")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rr.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Run("all checks up", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("postgres", func(context.Context) error { return nil })

		rr := serve(t, h, "/health/ready")
		assert.Equal(t, http.StatusOK, rr.Code)

		var body ReadinessResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "ready", body.Status)
		assert.Equal(t, "up", body.Checks["postgres"])
	})

	t.Run("failing check reports 503", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("postgres", func(context.Context) error { return nil })
		h.RegisterCheck("redis", func(context.Context) error { return errors.New("connection refused") })

		rr := serve(t, h, "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

		var body ReadinessResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "not_ready", body.Status)
		assert.Equal(t, "down: connection refused", body.Checks["redis"])
		assert.Equal(t, "up", body.Checks["postgres"])
	})
}

func TestReadinessBoundsSlowChecks(t *testing.T) {
	h := New("test")
	h.RegisterCheck("kafka", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	rr := serve(t, h, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Less(t, time.Since(start), checkTimeout+time.Second)
	assert.Contains(t, rr.Body.String(), "context deadline exceeded")
}

func TestStatus(t *testing.T) {
	rr := serve(t, New("prod"), "/health")
	assert.Equal(t, http.StatusOK, rr.Code)

	var body StatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "prod", body.Environment)
	assert.Equal(t, Version, body.Version)
}
