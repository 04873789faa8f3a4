package request

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logdata/pkg/requestcontext"
)

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRequestID(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = requestcontext.RequestID(r.Context())
	}))

	serve := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/logs", nil)
		if header != "" {
			req.Header.Set("X-Request-ID", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("generates a UUID", func(t *testing.T) {
		rec := serve("")
		assert.Len(t, captured, 36)
		assert.Equal(t, captured, rec.Header().Get("X-Request-ID"))
	})

	t.Run("keeps a well-formed client ID", func(t *testing.T) {
		rec := serve("trace.span_1234-a")
		assert.Equal(t, "trace.span_1234-a", captured)
		assert.Equal(t, "trace.span_1234-a", rec.Header().Get("X-Request-ID"))
	})

	t.Run("replaces hostile client IDs", func(t *testing.T) {
		for _, id := range []string{
			"abc\ninjected",
			"<script>",
			"id with spaces",
			strings.Repeat("a", MaxRequestIDLength+1),
		} {
			rec := serve(id)
			assert.NotEqual(t, id, captured)
			assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
		}
	})

	t.Run("accepts the maximum length", func(t *testing.T) {
		id := strings.Repeat("a", MaxRequestIDLength)
		serve(id)
		assert.Equal(t, id, captured)
	})
}

func TestRecoveryWritesInternalError(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	handler := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logs", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal_error"}`, rec.Body.String())
	assert.Contains(t, logs.String(), "panic recovered")
}

func TestLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	t.Run("logs status and truncated client address", func(t *testing.T) {
		logs.Reset()
		handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}))
		req := httptest.NewRequest(http.MethodPost, "/logs", nil)
		req = req.WithContext(requestcontext.WithClientIP(req.Context(), "203.0.113.77"))
		handler.ServeHTTP(httptest.NewRecorder(), req)

		var line map[string]any
		require.NoError(t, json.Unmarshal(logs.Bytes(), &line))
		assert.Equal(t, "http request", line["msg"])
		assert.Equal(t, "INFO", line["level"])
		assert.InDelta(t, float64(http.StatusAccepted), line["status"], 0)
		assert.NotContains(t, logs.String(), "203.0.113.77")
	})

	t.Run("skips healthy probes", func(t *testing.T) {
		logs.Reset()
		Logger(logger)(http.HandlerFunc(ok)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Empty(t, logs.String())
	})

	t.Run("server errors log at error level", func(t *testing.T) {
		logs.Reset()
		handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/logs", nil))
		assert.Contains(t, logs.String(), `"level":"ERROR"`)
	})
}

func TestLatencyToleratesNilMetrics(t *testing.T) {
	handler := Latency(nil, func(*http.Request) string { return "/logs" })(http.HandlerFunc(ok))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTimeout(t *testing.T) {
	handler := Timeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logs", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, timeoutBody, rec.Body.String())
}
