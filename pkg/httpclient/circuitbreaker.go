package httpclient

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies this breaker (used in metrics and logs).
	Name string

	// MaxRequests is the maximum number of requests allowed in the half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state for clearing internal counts.
	Interval time.Duration

	// Timeout is how long the breaker stays open before moving to half-open.
	Timeout time.Duration

	// FailureRatio is the ratio of failures to total requests that trips the breaker.
	FailureRatio float64

	// MinRequests is the minimum number of requests needed before the failure ratio is evaluated.
	MinRequests uint32
}

// DefaultCircuitBreakerConfig returns sensible defaults for a circuit breaker.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// ErrCircuitOpen is returned when the circuit breaker is open and rejects the request.
var ErrCircuitOpen = gobreaker.ErrOpenState

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// CircuitBreaker guards a Sender. Network failures and 5xx responses count
// as failures; 4xx responses (including 401s that trigger a token refresh)
// are the backend working as intended and never trip the breaker.
type CircuitBreaker struct {
	next    Sender
	breaker *gobreaker.CircuitBreaker[*Response]
	logger  *slog.Logger
}

// NewCircuitBreaker wraps next with a circuit breaker.
func NewCircuitBreaker(next Sender, cbCfg CircuitBreakerConfig, logger *slog.Logger) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        cbCfg.Name,
		MaxRequests: cbCfg.MaxRequests,
		Interval:    cbCfg.Interval,
		Timeout:     cbCfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cbCfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cbCfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var se *StatusError
			if errors.As(err, &se) && IsClientError(se.Status) {
				return true
			}
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			circuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	circuitBreakerState.WithLabelValues(cbCfg.Name).Set(0)

	return &CircuitBreaker{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[*Response](settings),
		logger:  logger,
	}
}

// Send executes the request through the circuit breaker. When the breaker is
// open the request is rejected with a *StatusError wrapping ErrCircuitOpen.
func (c *CircuitBreaker) Send(ctx context.Context, req Request) (*Response, error) {
	return c.execute(ctx, c.next, req)
}

// Wrap returns a Sender that routes next through this breaker, so senders
// bound to different sessions share one breaker state.
func (c *CircuitBreaker) Wrap(next Sender) Sender {
	return SenderFunc(func(ctx context.Context, req Request) (*Response, error) {
		return c.execute(ctx, next, req)
	})
}

func (c *CircuitBreaker) execute(ctx context.Context, next Sender, req Request) (*Response, error) {
	resp, err := c.breaker.Execute(func() (*Response, error) {
		return next.Send(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.WarnContext(ctx, "backend circuit open, request rejected",
			slog.String("request", req.String()),
		)
		return nil, &StatusError{Request: req, Code: "BACKEND_UNAVAILABLE", Message: "backend temporarily unavailable", Err: err}
	}
	return resp, err
}

// State returns the current state of the circuit breaker.
func (c *CircuitBreaker) State() gobreaker.State {
	return c.breaker.State()
}
