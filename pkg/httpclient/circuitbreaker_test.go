package httpclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  2,
	}
}

func TestCircuitBreaker_TripsOnServerErrors(t *testing.T) {
	rec := &recordingSender{fn: func(req Request) (*Response, error) {
		return nil, &StatusError{Status: http.StatusInternalServerError, Request: req}
	}}
	cb := NewCircuitBreaker(rec, fastBreakerConfig("trip-5xx"), discardLogger())

	for i := 0; i < 2; i++ {
		_, err := cb.Send(context.Background(), NewRequest(http.MethodGet, "/dashboard"))
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Send(context.Background(), NewRequest(http.MethodGet, "/dashboard"))
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "BACKEND_UNAVAILABLE", se.Code)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Len(t, rec.seen, 2, "open breaker must not reach the backend")
}

func TestCircuitBreaker_IgnoresClientErrors(t *testing.T) {
	rec := &recordingSender{fn: func(req Request) (*Response, error) {
		return &Response{Status: http.StatusUnauthorized}, &StatusError{Status: http.StatusUnauthorized, Request: req}
	}}
	cb := NewCircuitBreaker(rec, fastBreakerConfig("ignore-4xx"), discardLogger())

	for i := 0; i < 5; i++ {
		resp, err := cb.Send(context.Background(), NewRequest(http.MethodGet, "/orders/all"))
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.True(t, IsUnauthorized(err))
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_PassesSuccess(t *testing.T) {
	rec := &recordingSender{}
	cb := NewCircuitBreaker(rec, DefaultCircuitBreakerConfig("pass"), discardLogger())

	resp, err := cb.Send(context.Background(), NewRequest(http.MethodGet, "/banners"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestCircuitBreaker_WrapSharesState(t *testing.T) {
	failing := &recordingSender{fn: func(req Request) (*Response, error) {
		return nil, &StatusError{Status: http.StatusBadGateway, Request: req}
	}}
	healthy := &recordingSender{}
	cb := NewCircuitBreaker(healthy, fastBreakerConfig("shared"), discardLogger())

	a := cb.Wrap(failing)
	for i := 0; i < 2; i++ {
		_, _ = a.Send(context.Background(), NewRequest(http.MethodGet, "/dashboard"))
	}

	b := cb.Wrap(healthy)
	_, err := b.Send(context.Background(), NewRequest(http.MethodGet, "/dashboard"))
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Empty(t, healthy.seen)
}
