package models

import "time"

// Result is the outcome of consuming from a sliding window.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds; zero when allowed
}

// NewResult fills RetryAfter from resetAt relative to now.
func NewResult(allowed bool, limit, remaining int, resetAt, now time.Time) *Result {
	r := &Result{Allowed: allowed, Limit: limit, Remaining: remaining, ResetAt: resetAt}
	if !allowed {
		if secs := int(resetAt.Sub(now).Seconds()); secs > 0 {
			r.RetryAfter = secs
		}
	}
	return r
}

type RateLimitExceededResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RetryAfter       int    `json:"retry_after"`
}
