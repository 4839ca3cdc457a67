package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/session"
	apperrors "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/errors"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/httpclient"
)

// BearerToken attaches the session's access token unless the request
// already carries an Authorization header. A session without an access token
// sends the request bare.
func BearerToken(sess *session.Session) httpclient.RequestMiddleware {
	return func(ctx context.Context, req httpclient.Request) (httpclient.Request, error) {
		if req.Header.Get("Authorization") != "" {
			return req, nil
		}
		st, err := sess.Get(ctx)
		if err != nil {
			return req, fmt.Errorf("read session: %w", err)
		}
		if st.Tokens.AccessToken == "" {
			return req, nil
		}
		return req.WithCredential(st.Tokens.AccessToken), nil
	}
}

// Tokens is what the 401 handler needs from a refresher.
type Tokens interface {
	Refresh(ctx context.Context, sess *session.Session) (string, error)
}

// RefreshOnUnauthorized handles a 401 from the backend:
//
//   - a 401 from the refresh endpoint clears the session and ends it;
//   - a 401 on a request that was already retried is returned unchanged;
//   - otherwise the token is refreshed and the request is re-sent once.
func RefreshOnUnauthorized(sess *session.Session, tokens Tokens, logger *slog.Logger) httpclient.ResponseHandler {
	return func(ctx context.Context, req httpclient.Request, resp *httpclient.Response, err error, resend httpclient.Sender) (*httpclient.Response, error) {
		if err == nil || !httpclient.IsUnauthorized(err) {
			return resp, err
		}

		if IsRefreshPath(req.Path) {
			sessionTerminations.Inc()
			if cerr := sess.Clear(ctx); cerr != nil {
				logger.ErrorContext(ctx, "failed to clear session", slog.String("error", cerr.Error()))
			}
			return nil, apperrors.SessionTerminated("refresh token rejected")
		}

		if req.Retried() {
			return resp, err
		}

		token, rerr := freshToken(ctx, sess, tokens, req, logger)
		if rerr != nil {
			return nil, rerr
		}

		retry := req.WithCredential(token).WithAttempt(req.Attempt + 1)
		return resend.Send(ctx, retry)
	}
}

// freshToken returns a token newer than the one req was sent with. When req
// carried a stored token that a concurrent refresh has since replaced, the
// stored token is reused without another backend call. A caller-supplied
// Authorization header always leads to a refresh.
func freshToken(ctx context.Context, sess *session.Session, tokens Tokens, req httpclient.Request, logger *slog.Logger) (string, error) {
	if req.Credential != "" {
		if st, err := sess.Get(ctx); err == nil && st.Tokens.AccessToken != "" &&
			st.Tokens.AccessToken != req.Credential {
			return st.Tokens.AccessToken, nil
		}
	}
	logger.DebugContext(ctx, "access token rejected, refreshing", slog.String("request", req.String()))
	return tokens.Refresh(ctx, sess)
}

// IsRefreshPath reports whether p (a path or absolute URL) targets the
// refresh endpoint.
func IsRefreshPath(p string) bool {
	if u, err := url.Parse(p); err == nil {
		p = u.Path
	}
	return strings.HasSuffix(strings.TrimRight(p, "/"), RefreshPath)
}

// NewPrivateClient wraps core with bearer injection and refresh-and-retry.
func NewPrivateClient(core httpclient.Sender, sess *session.Session, tokens Tokens, logger *slog.Logger) httpclient.Sender {
	return httpclient.NewPipeline(core).
		Before(BearerToken(sess)).
		After(RefreshOnUnauthorized(sess, tokens, logger))
}
