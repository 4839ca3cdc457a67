package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/session"
	apperrors "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/errors"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/httpclient"
)

// Backend auth endpoints, relative to the API base URL.
const (
	LoginPath   = "/auth/login"
	RefreshPath = "/auth/regenerate-token"
)

// refreshTimeout bounds a shared refresh call independently of whichever
// request happened to start it.
const refreshTimeout = 15 * time.Second

// SenderFor returns the unauthenticated sender bound to a session.
type SenderFor func(sessionID string) httpclient.Sender

// Static binds every session to the same sender.
func Static(s httpclient.Sender) SenderFor {
	return func(string) httpclient.Sender { return s }
}

// Refresher exchanges a session's refresh token for a new access token.
// Concurrent refreshes of one session share a single backend call.
type Refresher struct {
	public SenderFor
	logger *slog.Logger
	group  singleflight.Group
}

// NewRefresher creates a Refresher that calls the refresh endpoint through
// public.
func NewRefresher(public SenderFor, logger *slog.Logger) *Refresher {
	return &Refresher{public: public, logger: logger}
}

type refreshPayload struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	refreshPayload
	Success *bool          `json:"success"`
	Message string         `json:"message"`
	Data    refreshPayload `json:"data"`
}

// Refresh returns a new access token for sess. Any failure clears the
// session and yields an error matching apperrors.ErrSessionTerminated.
func (r *Refresher) Refresh(ctx context.Context, sess *session.Session) (string, error) {
	ch := r.group.DoChan(sess.ID(), func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return r.refresh(shared, sess)
	})

	select {
	case res := <-ch:
		if res.Shared {
			refreshCoalesced.Inc()
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *Refresher) refresh(ctx context.Context, sess *session.Session) (string, error) {
	st, err := sess.Get(ctx)
	if err != nil {
		refreshTotal.WithLabelValues("failed").Inc()
		return "", err
	}
	if st.Tokens.RefreshToken == "" {
		return "", r.terminate(ctx, sess, "no_token", "session has no refresh token", nil)
	}

	req, err := httpclient.NewRequest(http.MethodPost, RefreshPath).
		WithHeader("Authorization", "Bearer "+st.Tokens.RefreshToken).
		WithJSON(map[string]string{"refreshToken": st.Tokens.RefreshToken})
	if err != nil {
		return "", err
	}

	resp, err := r.public(sess.ID()).Send(ctx, req)
	if err != nil {
		if httpclient.IsUnauthorized(err) {
			return "", r.terminate(ctx, sess, "rejected", "refresh token rejected", err)
		}
		return "", r.terminate(ctx, sess, "failed", "token refresh failed", err)
	}

	var body refreshResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return "", r.terminate(ctx, sess, "failed", "token refresh failed", err)
	}
	pair := session.TokenPair(body.refreshPayload)
	if pair.AccessToken == "" {
		pair = session.TokenPair(body.Data)
	}
	if pair.AccessToken == "" || (body.Success != nil && !*body.Success) {
		return "", r.terminate(ctx, sess, "failed", "refresh response carried no access token", errors.New(body.Message))
	}

	if _, err := sess.SetTokens(ctx, pair); err != nil {
		refreshTotal.WithLabelValues("failed").Inc()
		return "", err
	}

	refreshTotal.WithLabelValues("success").Inc()
	r.logger.DebugContext(ctx, "access token refreshed", slog.Bool("rotated", pair.RefreshToken != ""))
	return pair.AccessToken, nil
}

func (r *Refresher) terminate(ctx context.Context, sess *session.Session, outcome, reason string, cause error) error {
	refreshTotal.WithLabelValues(outcome).Inc()
	sessionTerminations.Inc()

	attrs := []any{slog.String("reason", reason)}
	if cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
	}
	r.logger.WarnContext(ctx, "session terminated", attrs...)

	if err := sess.Clear(ctx); err != nil {
		r.logger.ErrorContext(ctx, "failed to clear session", slog.String("error", err.Error()))
	}
	return apperrors.SessionTerminated(reason)
}
