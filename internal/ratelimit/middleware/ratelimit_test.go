package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"logdata/internal/ratelimit/models"
	"logdata/internal/ratelimit/store/bucket"
	"logdata/pkg/requestcontext"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int, time.Duration) (*models.Result, error) {
	return nil, errors.New("store down")
}

type RateLimitMiddlewareSuite struct {
	suite.Suite
	handler http.Handler
}

func TestRateLimitMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(RateLimitMiddlewareSuite))
}

func (s *RateLimitMiddlewareSuite) SetupTest() {
	mw := New(bucket.NewInMemoryBucketStore(), nil)
	s.handler = mw.PerIP("register", 2, time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func (s *RateLimitMiddlewareSuite) do(remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/request_registration", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *RateLimitMiddlewareSuite) TestLimitsPerIP() {
	rec := s.do("203.0.113.9:1000")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("2", rec.Header().Get("X-RateLimit-Limit"))
	s.Equal("1", rec.Header().Get("X-RateLimit-Remaining"))

	// port does not matter
	s.Equal(http.StatusOK, s.do("203.0.113.9:2000").Code)

	rec = s.do("203.0.113.9:3000")
	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.NotEmpty(rec.Header().Get("Retry-After"))

	var body models.RateLimitExceededResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("rate_limit_exceeded", body.Error)
	s.Equal(rateLimitExceededMessage, body.ErrorDescription)
	s.Positive(body.RetryAfter)

	s.Equal(http.StatusOK, s.do("198.51.100.7:1000").Code)
}

func (s *RateLimitMiddlewareSuite) TestKeysOnResolvedClientIP() {
	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/request_registration", nil)
		req = req.WithContext(requestcontext.WithClientIP(req.Context(), "198.51.100.1"))
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		s.Equal(http.StatusOK, rec.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/request_registration", nil)
	req.RemoteAddr = "198.51.100.1:9000"
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	s.Equal(http.StatusTooManyRequests, rec.Code)
}

func (s *RateLimitMiddlewareSuite) TestFailsOpen() {
	mw := New(failingLimiter{}, nil)
	h := mw.PerIP("register", 1, time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *RateLimitMiddlewareSuite) TestZeroLimitDisables() {
	mw := New(failingLimiter{}, nil)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})
	h := mw.PerIP("register", 0, time.Hour)(next)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Empty(rec.Header().Get("X-RateLimit-Limit"))
}
