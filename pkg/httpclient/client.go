package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// maxResponseBytes caps how much of a backend response is buffered.
const maxResponseBytes = 10 << 20

// Sender sends a request descriptor and returns the fully read response.
// Non-2xx responses are returned as *StatusError.
type Sender interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, req Request) (*Response, error)

// Send calls f(ctx, req).
func (f SenderFunc) Send(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Config holds HTTP client configuration
type Config struct {
	// Name labels metrics and spans ("public", "private", ...).
	Name string

	// BaseURL is prepended to every request path.
	BaseURL string

	// WithCredentials keeps a cookie jar so backend cookies are replayed on
	// later requests.
	WithCredentials bool

	// Header is applied to every request unless the request sets the key itself.
	Header http.Header

	Timeout         time.Duration
	MaxRetries      int
	RetryWaitMin    time.Duration
	RetryWaitMax    time.Duration
	MaxConnsPerHost int
}

// DefaultConfig returns sensible defaults for a backend client. Automatic
// retries are off: failed calls surface to the operator unchanged.
func DefaultConfig(name, baseURL string) Config {
	return Config{
		Name:            name,
		BaseURL:         baseURL,
		WithCredentials: true,
		Timeout:         30 * time.Second,
		MaxRetries:      0,
		RetryWaitMin:    200 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 50,
	}
}

// Client is the core backend request sender: fixed base URL, optional
// credential jar, response buffering and error translation.
type Client struct {
	httpClient *http.Client
	config     Config
	base       *url.URL
	tracer     trace.Tracer
}

// New creates a new HTTP client with connection pooling.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", cfg.BaseURL)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	hc := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}
	if cfg.WithCredentials {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		hc.Jar = jar
	}

	if cfg.Name == "" {
		cfg.Name = "backend"
	}

	return &Client{
		httpClient: hc,
		config:     cfg,
		base:       base,
		tracer:     otel.Tracer("github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/httpclient"),
	}, nil
}

// Name returns the configured client name.
func (c *Client) Name() string {
	return c.config.Name
}

// WithCredentials reports whether the client replays backend cookies.
func (c *Client) WithCredentials() bool {
	return c.config.WithCredentials
}

// WithJar returns a client that shares c's transport and settings but keeps
// cookies in jar. The console gives each operator session its own jar so
// backend cookies never cross sessions.
func (c *Client) WithJar(jar http.CookieJar) *Client {
	hc := *c.httpClient
	hc.Jar = jar
	cp := *c
	cp.httpClient = &hc
	return &cp
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Send executes the request, retrying network errors and 5xx responses of
// idempotent methods when MaxRetries > 0.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	ctx, span := c.tracer.Start(ctx, "backend "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.route", req.Path),
			attribute.String("backend.client", c.config.Name),
			attribute.Int("backend.attempt", req.Attempt),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := c.send(ctx, req)

	status := 0
	if resp != nil {
		status = resp.Status
	}
	var se *StatusError
	if errors.As(err, &se) {
		status = se.Status
	}
	observeBackendRequest(c.config.Name, req.Method, status, time.Since(start))

	span.SetAttributes(attribute.Int("http.status_code", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return resp, err
}

func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	target, err := c.resolve(req)
	if err != nil {
		return nil, &StatusError{Request: req, Message: "invalid request URL", Err: err}
	}

	retries := 0
	if isIdempotent(req.Method) {
		retries = c.config.MaxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			wait := c.config.RetryWaitMin * time.Duration(1<<uint(attempt-1))
			if wait > c.config.RetryWaitMax {
				wait = c.config.RetryWaitMax
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, &StatusError{Request: req, Message: "request cancelled", Err: ctx.Err()}
			}
		}

		resp, err := c.roundTrip(ctx, target, req)
		if err != nil {
			lastErr = err
			if isRetryableError(err) && attempt < retries {
				continue
			}
			return nil, err
		}
		return resp, nil
	}
	return nil, lastErr
}

func (c *Client) roundTrip(ctx context.Context, target string, req Request) (*Response, error) {
	var body io.Reader = http.NoBody
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, &StatusError{Request: req, Message: "build request", Err: err}
	}
	for k, vals := range c.config.Header {
		if _, set := req.Header[k]; !set {
			httpReq.Header[k] = append([]string(nil), vals...)
		}
	}
	for k, vals := range req.Header {
		httpReq.Header[k] = append([]string(nil), vals...)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &StatusError{Request: req, Message: "backend unreachable", Err: err}
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, &StatusError{Status: httpResp.StatusCode, Request: req, Message: "read response body", Err: err}
	}

	resp := &Response{
		Status: httpResp.StatusCode,
		Header: httpResp.Header.Clone(),
		Body:   data,
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return resp, ParseResponseError(resp, req)
	}
	return resp, nil
}

// resolve joins the base URL and the request path. Absolute request URLs are
// used as-is.
func (c *Client) resolve(req Request) (string, error) {
	var u *url.URL
	if strings.HasPrefix(req.Path, "http://") || strings.HasPrefix(req.Path, "https://") {
		parsed, err := url.Parse(req.Path)
		if err != nil {
			return "", err
		}
		u = parsed
	} else {
		path := req.Path
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		cpy := *c.base
		cpy.Path = c.base.Path + path
		u = &cpy
	}

	if len(req.Query) > 0 {
		q := u.Query()
		for k, vals := range req.Query {
			for _, v := range vals {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

// isRetryableError reports whether a failed attempt may be repeated:
// network errors and 5xx responses other than 501.
func isRetryableError(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	if errors.Is(se.Err, context.Canceled) || errors.Is(se.Err, context.DeadlineExceeded) {
		return false
	}
	if se.Status == 0 {
		var netErr net.Error
		return errors.As(se.Err, &netErr)
	}
	return se.Status >= 500 && se.Status != http.StatusNotImplemented
}

func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}
