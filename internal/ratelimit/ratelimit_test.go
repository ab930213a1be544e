package ratelimit

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idattest/pkg/requestcontext"
	"idattest/pkg/testutil"
)

func TestLimiter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	t.Run("burst then reject then refill", func(t *testing.T) {
		l := New(1, 2, time.Minute)
		assert.True(t, l.Allow("10.0.0.1", now).Allowed)
		assert.True(t, l.Allow("10.0.0.1", now).Allowed)

		res := l.Allow("10.0.0.1", now)
		assert.False(t, res.Allowed)
		assert.Equal(t, 0, res.Remaining)
		assert.Greater(t, res.RetryAfter, time.Duration(0))

		assert.True(t, l.Allow("10.0.0.1", now.Add(time.Second)).Allowed)
	})

	t.Run("keys are independent", func(t *testing.T) {
		l := New(1, 1, time.Minute)
		assert.True(t, l.Allow("a", now).Allowed)
		assert.False(t, l.Allow("a", now).Allowed)
		assert.True(t, l.Allow("b", now).Allowed)
	})

	t.Run("idle keys are swept", func(t *testing.T) {
		l := New(100, 1000, time.Minute)
		l.Allow("old", now)
		later := now.Add(time.Hour)
		for range sweepEvery {
			l.Allow("new", later)
		}
		assert.Equal(t, 1, l.Len())
	})

	t.Run("nil limiter allows", func(t *testing.T) {
		var l *Limiter
		assert.Nil(t, New(0, 1, 0))
		assert.True(t, l.Allow("x", now).Allowed)
	})
}

func TestMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rejected := 0
	m := NewMiddleware(New(0.001, 1, time.Minute), logger, WithRejectHook(func() { rejected++ }))
	h := m.RateLimit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := func() *http.Request {
		r := testutil.NewRequest(t, http.MethodPost, "/notarize")
		return r.WithContext(requestcontext.WithClientIP(r.Context(), "192.0.2.7"))
	}

	rr := testutil.DoRequest(h, req())
	testutil.AssertStatus(t, rr, http.StatusNoContent)
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Limit"))

	rr = testutil.DoRequest(h, req())
	testutil.AssertStatus(t, rr, http.StatusTooManyRequests)
	require.NotEmpty(t, rr.Header().Get("Retry-After"))
	body := testutil.UnmarshalResponse[ExceededResponse](t, rr)
	assert.Equal(t, "rate_limit_exceeded", body.Error)
	assert.GreaterOrEqual(t, body.RetryAfter, 1)
	assert.Equal(t, 1, rejected)

	disabled := NewMiddleware(New(0.001, 1, time.Minute), logger, WithDisabled(true))
	h = disabled.RateLimit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for range 3 {
		testutil.AssertStatus(t, testutil.DoRequest(h, req()), http.StatusNoContent)
	}
}
