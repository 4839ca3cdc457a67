package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_token_refresh_total",
			Help: "Access token refresh attempts by outcome",
		},
		[]string{"outcome"},
	)

	refreshCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "admin_token_refresh_coalesced_total",
			Help: "Refresh requests that joined an in-flight refresh instead of calling the backend",
		},
	)

	loginTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_login_total",
			Help: "Operator login attempts by outcome",
		},
		[]string{"outcome"},
	)

	sessionTerminations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "admin_session_terminations_total",
			Help: "Sessions ended because the refresh token was rejected or refresh failed",
		},
	)
)
