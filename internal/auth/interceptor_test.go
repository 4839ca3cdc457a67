package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/session"
	apperrors "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/errors"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/httpclient"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSession(t *testing.T, pair session.TokenPair) (*session.Manager, *session.Session) {
	t.Helper()
	mgr := session.NewManager(session.NewMemoryStore(), discardLogger())
	sess := mgr.Session(session.NewID())
	if pair.AccessToken != "" {
		require.NoError(t, sess.Establish(context.Background(), session.Identity{ID: "u-1", Role: session.RoleAdmin}, pair))
	}
	return mgr, sess
}

// backend answers 401 unless the request carries the accepted token.
type backend struct {
	mu     sync.Mutex
	accept string
	seen   []httpclient.Request
}

func (b *backend) Send(_ context.Context, req httpclient.Request) (*httpclient.Response, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seen = append(b.seen, req)
	if req.Header.Get("Authorization") != "Bearer "+b.accept {
		resp := &httpclient.Response{Status: http.StatusUnauthorized}
		return resp, &httpclient.StatusError{Status: http.StatusUnauthorized, Request: req, Message: "jwt expired"}
	}
	return &httpclient.Response{Status: http.StatusOK}, nil
}

func (b *backend) requests() []httpclient.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]httpclient.Request(nil), b.seen...)
}

// stubTokens hands out a fixed token and stores it in the session.
type stubTokens struct {
	calls atomic.Int32
	token string
	err   error
}

func (s *stubTokens) Refresh(ctx context.Context, sess *session.Session) (string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	if _, err := sess.SetTokens(ctx, session.TokenPair{AccessToken: s.token}); err != nil {
		return "", err
	}
	return s.token, nil
}

func TestBearerToken_AttachesAccessToken(t *testing.T) {
	_, sess := newSession(t, session.TokenPair{AccessToken: "A1", RefreshToken: "R1"})

	req, err := BearerToken(sess)(context.Background(), httpclient.NewRequest(http.MethodGet, "/orders/all"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer A1", req.Header.Get("Authorization"))
	assert.Equal(t, "A1", req.Credential)
}

func TestBearerToken_KeepsPresetHeader(t *testing.T) {
	_, sess := newSession(t, session.TokenPair{AccessToken: "A1"})

	preset := httpclient.NewRequest(http.MethodPost, RefreshPath).WithHeader("Authorization", "Bearer R1")
	req, err := BearerToken(sess)(context.Background(), preset)
	require.NoError(t, err)
	assert.Equal(t, "Bearer R1", req.Header.Get("Authorization"))
	assert.Empty(t, req.Credential)
}

func TestBearerToken_EmptySessionSendsBare(t *testing.T) {
	_, sess := newSession(t, session.TokenPair{})

	req, err := BearerToken(sess)(context.Background(), httpclient.NewRequest(http.MethodGet, "/dashboard"))
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestPrivateClient_RefreshesOnceAndRetries(t *testing.T) {
	_, sess := newSession(t, session.TokenPair{AccessToken: "A1", RefreshToken: "R1"})
	be := &backend{accept: "A2"}
	tokens := &stubTokens{token: "A2"}

	resp, err := NewPrivateClient(be, sess, tokens, discardLogger()).
		Send(context.Background(), httpclient.NewRequest(http.MethodGet, "/dashboard"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)

	assert.Equal(t, int32(1), tokens.calls.Load())
	seen := be.requests()
	require.Len(t, seen, 2)
	assert.Equal(t, "Bearer A1", seen[0].Header.Get("Authorization"))
	assert.Equal(t, "Bearer A2", seen[1].Header.Get("Authorization"))
	assert.True(t, seen[1].Retried())
}

func TestPrivateClient_NeverRetriesTwice(t *testing.T) {
	_, sess := newSession(t, session.TokenPair{AccessToken: "A1", RefreshToken: "R1"})
	be := &backend{accept: "nothing-works"}
	tokens := &stubTokens{token: "A2"}

	_, err := NewPrivateClient(be, sess, tokens, discardLogger()).
		Send(context.Background(), httpclient.NewRequest(http.MethodGet, "/orders/all"))
	require.Error(t, err)
	assert.True(t, httpclient.IsUnauthorized(err))

	assert.Equal(t, int32(1), tokens.calls.Load())
	assert.Len(t, be.requests(), 2)
}

func TestPrivateClient_PassesOtherErrors(t *testing.T) {
	_, sess := newSession(t, session.TokenPair{AccessToken: "A1", RefreshToken: "R1"})
	tokens := &stubTokens{token: "A2"}
	be := httpclient.SenderFunc(func(_ context.Context, req httpclient.Request) (*httpclient.Response, error) {
		return &httpclient.Response{Status: http.StatusForbidden}, &httpclient.StatusError{Status: http.StatusForbidden, Request: req}
	})

	_, err := NewPrivateClient(be, sess, tokens, discardLogger()).
		Send(context.Background(), httpclient.NewRequest(http.MethodDelete, "/banners/b-1"))
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	assert.Zero(t, tokens.calls.Load())
}

func TestPrivateClient_RefreshFailureEndsRequest(t *testing.T) {
	_, sess := newSession(t, session.TokenPair{AccessToken: "A1", RefreshToken: "R1"})
	be := &backend{accept: "A2"}
	tokens := &stubTokens{err: apperrors.SessionTerminated("refresh token rejected")}

	_, err := NewPrivateClient(be, sess, tokens, discardLogger()).
		Send(context.Background(), httpclient.NewRequest(http.MethodGet, "/dashboard"))
	assert.ErrorIs(t, err, apperrors.ErrSessionTerminated)
	assert.Len(t, be.requests(), 1)
}

func TestPrivateClient_RefreshEndpoint401ClearsSession(t *testing.T) {
	_, sess := newSession(t, session.TokenPair{AccessToken: "A1", RefreshToken: "R1"})
	be := &backend{accept: "never"}
	tokens := &stubTokens{token: "A2"}

	_, err := NewPrivateClient(be, sess, tokens, discardLogger()).
		Send(context.Background(), httpclient.NewRequest(http.MethodPost, RefreshPath))
	assert.ErrorIs(t, err, apperrors.ErrSessionTerminated)
	assert.Zero(t, tokens.calls.Load(), "a rejected refresh must not trigger another refresh")
	assert.Len(t, be.requests(), 1)

	st, err := sess.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Authenticated())
}

func TestPrivateClient_ReusesTokenRefreshedMeanwhile(t *testing.T) {
	_, sess := newSession(t, session.TokenPair{AccessToken: "A2", RefreshToken: "R1"})
	be := &backend{accept: "A2"}
	tokens := &stubTokens{token: "A3"}

	// Sent with a token that was replaced while the request was in flight.
	req := httpclient.NewRequest(http.MethodGet, "/dashboard").WithCredential("A1")
	resp, err := NewPrivateClient(be, sess, tokens, discardLogger()).Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Zero(t, tokens.calls.Load())
}

func TestPrivateClient_PresetHeaderStillRefreshes(t *testing.T) {
	_, sess := newSession(t, session.TokenPair{AccessToken: "A1", RefreshToken: "R1"})
	be := &backend{accept: "A2"}
	tokens := &stubTokens{token: "A2"}

	req := httpclient.NewRequest(http.MethodGet, "/dashboard").WithHeader("Authorization", "Bearer CUSTOM")
	resp, err := NewPrivateClient(be, sess, tokens, discardLogger()).Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)

	assert.Equal(t, int32(1), tokens.calls.Load())
	seen := be.requests()
	require.Len(t, seen, 2)
	assert.Equal(t, "Bearer CUSTOM", seen[0].Header.Get("Authorization"))
	assert.Equal(t, "Bearer A2", seen[1].Header.Get("Authorization"))
	assert.Equal(t, 1, seen[1].Attempt)
}

func TestIsRefreshPath(t *testing.T) {
	assert.True(t, IsRefreshPath(RefreshPath))
	assert.True(t, IsRefreshPath("https://bindu-jewellery-backend.vercel.app/api/auth/regenerate-token"))
	assert.True(t, IsRefreshPath("/auth/regenerate-token/"))
	assert.False(t, IsRefreshPath(LoginPath))
	assert.False(t, IsRefreshPath("/orders/all"))
}
