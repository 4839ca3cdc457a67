package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/api"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/audit"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/auth"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/backendtest"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/content"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/guard"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/session"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/health"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/httpclient"
	pkgkafka "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/kafka"
	pkgmiddleware "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/middleware"
)

// ============================================================================
// Test harness
// ============================================================================

type mockPublisher struct {
	mock.Mock

	mu     sync.Mutex
	events []*pkgkafka.Event
}

func (m *mockPublisher) Publish(ctx context.Context, event *pkgkafka.Event) error {
	args := m.Called(ctx, event)
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	return args.Error(0)
}

func (m *mockPublisher) last() *pkgkafka.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return nil
	}
	return m.events[len(m.events)-1]
}

type harness struct {
	fake   *backendtest.Server
	mgr    *session.Manager
	srv    *httptest.Server
	client *http.Client
	pub    *mockPublisher
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T, loginPerMinute, loginBurst int) *harness {
	t.Helper()
	logger := discardLogger()

	fake := backendtest.New(t)
	fake.AddAccount("admin@store.com", "secret", "admin")
	fake.AddAccount("staff@store.com", "secret", "user")

	cfg := httpclient.DefaultConfig("backend", fake.URL)
	cfg.Timeout = 5 * time.Second
	core, err := httpclient.New(cfg)
	require.NoError(t, err)

	clients := auth.NewClients(core, nil, logger)
	mgr := session.NewManager(session.NewMemoryStore(), logger)
	mgr.OnClear(clients.Forget)

	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	limiter := pkgmiddleware.NewRateLimiter(loginPerMinute, loginBurst, time.Minute)
	t.Cleanup(limiter.Close)

	router := NewRouter(Deps{
		Sessions:     mgr,
		Clients:      clients,
		Sanitizer:    content.NewSanitizer(),
		Importer:     api.NewImporter(2 * time.Second),
		Audit:        audit.NewRecorder(pub, logger),
		LoginLimiter: limiter,
		Health:       health.NewHandler(),
		Logger:       logger,
	}, Options{ServiceName: "admin-console-test", SessionTTL: time.Hour})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &harness{fake: fake, mgr: mgr, srv: srv, client: client, pub: pub}
}

func (h *harness) do(t *testing.T, method, path, contentType string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, h.srv.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (h *harness) doJSON(t *testing.T, method, path string, v any) (*http.Response, envelope) {
	t.Helper()
	var body io.Reader
	if v != nil {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	resp, data := h.do(t, method, path, "application/json", body)
	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(data, &env))
	}
	return resp, env
}

func (h *harness) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, _ := h.do(t, http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	return resp
}

func (h *harness) login(t *testing.T) string {
	t.Helper()
	resp := h.postForm(t, "/login", url.Values{"email": {"admin@store.com"}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	return h.sessionID(t)
}

func (h *harness) sessionID(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(h.srv.URL)
	require.NoError(t, err)
	for _, c := range h.client.Jar.Cookies(u) {
		if c.Name == guard.CookieName {
			return c.Value
		}
	}
	return ""
}

func cookieFrom(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == guard.CookieName {
			return c
		}
	}
	return nil
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

// ============================================================================
// Login / logout
// ============================================================================

func TestLogin_FormSetsCookieAndRedirects(t *testing.T) {
	h := newHarness(t, 600, 100)

	resp := h.postForm(t, "/login?from=%2Fadmin%2Fproducts", url.Values{"email": {"admin@store.com"}, "password": {"secret"}})

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/products", resp.Header.Get("Location"))

	c := cookieFrom(resp)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	st, err := h.mgr.Session(c.Value).Get(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Admin())
	assert.Equal(t, "A1", st.Tokens.AccessToken)

	require.NotNil(t, h.pub.last())
	assert.Equal(t, "admin.session.logged_in", h.pub.last().EventType)
	assert.Equal(t, "u-1", h.pub.last().Actor)
}

func TestLogin_JSONBodyRedirectsHome(t *testing.T) {
	h := newHarness(t, 600, 100)

	resp, _ := h.doJSON(t, http.MethodPost, "/login", LoginRequest{Email: "admin@store.com", Password: "secret"})

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, guard.HomePath, resp.Header.Get("Location"))
}

func TestLogin_IgnoresOffsiteFrom(t *testing.T) {
	h := newHarness(t, 600, 100)

	resp := h.postForm(t, "/login", url.Values{
		"email": {"admin@store.com"}, "password": {"secret"}, "from": {"https://evil.example/admin"},
	})

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, guard.HomePath, resp.Header.Get("Location"))
}

func TestLogin_RefusesNonAdmin(t *testing.T) {
	h := newHarness(t, 600, 100)

	resp, env := h.doJSON(t, http.MethodPost, "/login", LoginRequest{Email: "staff@store.com", Password: "secret"})

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, "FORBIDDEN", env.Code)
	assert.Nil(t, cookieFrom(resp))
	assert.Empty(t, h.sessionID(t))
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newHarness(t, 600, 100)

	resp, env := h.doJSON(t, http.MethodPost, "/login", LoginRequest{Email: "admin@store.com", Password: "nope"})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid email or password", env.Message)
}

func TestLogin_InvalidInputNeverReachesBackend(t *testing.T) {
	h := newHarness(t, 600, 100)

	resp, env := h.doJSON(t, http.MethodPost, "/login", LoginRequest{Email: "not-an-email", Password: "secret"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", env.Code)
	assert.Empty(t, h.fake.CallsTo("/auth/login"))
}

func TestLogin_RateLimited(t *testing.T) {
	h := newHarness(t, 1, 2)
	form := url.Values{"email": {"admin@store.com"}, "password": {"nope"}}

	for i := 0; i < 2; i++ {
		resp := h.postForm(t, "/login", form)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	resp := h.postForm(t, "/login", form)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
	assert.Len(t, h.fake.CallsTo("/auth/login"), 2)
}

func TestLogin_ReplacesPreviousSession(t *testing.T) {
	h := newHarness(t, 600, 100)
	first := h.login(t)
	second := h.login(t)

	require.NotEqual(t, first, second)
	st, err := h.mgr.Session(first).Get(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Authenticated())
}

func TestLoginPage(t *testing.T) {
	h := newHarness(t, 600, 100)

	resp, env := h.doJSON(t, http.MethodGet, "/login?from=%2Fadmin%2Forders", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hint LoginHint
	decodeData(t, env, &hint)
	assert.Equal(t, "/admin/orders", hint.From)
	assert.Equal(t, "no-store, private", resp.Header.Get("Cache-Control"))

	h.login(t)
	resp, _ = h.doJSON(t, http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, guard.HomePath, resp.Header.Get("Location"))
}

func TestLogout(t *testing.T) {
	h := newHarness(t, 600, 100)
	id := h.login(t)

	resp, _ := h.do(t, http.MethodPost, "/logout", "", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, guard.LoginPath, resp.Header.Get("Location"))
	assert.Empty(t, h.sessionID(t))

	st, err := h.mgr.Session(id).Get(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Authenticated())
	assert.Equal(t, "admin.session.logged_out", h.pub.last().EventType)

	resp, _ = h.do(t, http.MethodGet, "/admin/dashboard", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

// ============================================================================
// Guard
// ============================================================================

func TestAdmin_RedirectsAnonymousWithFrom(t *testing.T) {
	h := newHarness(t, 600, 100)

	resp, _ := h.do(t, http.MethodGet, "/admin/products?page=2", "", nil)

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?from=%2Fadmin%2Fproducts%3Fpage%3D2", resp.Header.Get("Location"))
	assert.Empty(t, h.fake.Calls())
}

func TestAdmin_ExpiredAccessTokenIsRefreshed(t *testing.T) {
	h := newHarness(t, 600, 100)
	id := h.login(t)
	h.fake.ExpireAccess()

	resp, env := h.doJSON(t, http.MethodGet, "/admin/dashboard", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	assert.Equal(t, 1, h.fake.RefreshCalls())

	st, err := h.mgr.Session(id).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A2", st.Tokens.AccessToken)
}

func TestAdmin_TerminatedSessionRedirectsToLogin(t *testing.T) {
	h := newHarness(t, 600, 100)
	id := h.login(t)
	h.fake.ExpireAccess()
	h.fake.RejectRefresh(true)

	resp, _ := h.do(t, http.MethodGet, "/admin/dashboard", "", nil)

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, guard.LoginPath, resp.Header.Get("Location"))
	c := cookieFrom(resp)
	require.NotNil(t, c)
	assert.Negative(t, c.MaxAge)
	assert.Len(t, h.fake.CallsTo("/dashboard"), 1, "the request is not retried")

	st, err := h.mgr.Session(id).Get(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Authenticated())
}

func TestAdmin_SessionHidesTokens(t *testing.T) {
	h := newHarness(t, 600, 100)
	h.login(t)

	resp, data := h.do(t, http.MethodGet, "/admin/session", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(data), "accessToken")
	assert.NotContains(t, string(data), "refreshToken")

	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	var view SessionView
	decodeData(t, env, &view)
	assert.Equal(t, "admin@store.com", view.Identity.Email)
	assert.Contains(t, view.Collections, "products")
	assert.Nil(t, view.AccessExpiresAt, "fake tokens are opaque")
}

// ============================================================================
// Collections
// ============================================================================

func TestAdmin_ListAndCreate(t *testing.T) {
	h := newHarness(t, 600, 100)
	h.fake.Seed("/products",
		map[string]any{"name": "Jhumka", "price": 2500},
		map[string]any{"name": "Kundan Necklace", "price": 15999},
		map[string]any{"name": "Solitaire Ring", "price": 45000},
	)
	h.login(t)

	resp, env := h.doJSON(t, http.MethodGet, "/admin/products?page=1&entries=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page api.Page[api.Product]
	decodeData(t, env, &page)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.Pagination.TotalEntries)
	assert.True(t, page.Pagination.HasNext)

	resp, env = h.doJSON(t, http.MethodPost, "/admin/products", map[string]any{"name": "Temple Necklace", "price": 8200})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created api.Product
	decodeData(t, env, &created)
	assert.Equal(t, "prd-4", created.ID)
	assert.Equal(t, "temple-necklace", created.Slug)

	last := h.pub.last()
	require.NotNil(t, last)
	assert.Equal(t, "admin.products.created", last.EventType)
	assert.Equal(t, "prd-4", last.SubjectID)
}

func TestAdmin_InvalidPayloadNeverReachesBackend(t *testing.T) {
	h := newHarness(t, 600, 100)
	h.login(t)

	resp, env := h.doJSON(t, http.MethodPost, "/admin/products", map[string]any{"price": -1})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", env.Code)
	assert.Zero(t, h.fake.Count("/products"))
}

func TestAdmin_UnknownCollection(t *testing.T) {
	h := newHarness(t, 600, 100)
	h.login(t)

	resp, env := h.doJSON(t, http.MethodGet, "/admin/wishlists", nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestAdmin_GetAndUpdate(t *testing.T) {
	h := newHarness(t, 600, 100)
	ids := h.fake.Seed("/categories", map[string]any{"name": "Rings", "slug": "rings"})
	h.login(t)

	resp, env := h.doJSON(t, http.MethodGet, "/admin/categories/"+ids[0], nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cat api.Category
	decodeData(t, env, &cat)
	assert.Equal(t, "Rings", cat.Name)

	resp, _ = h.doJSON(t, http.MethodPut, "/admin/categories/"+ids[0], map[string]any{"name": "Bridal Rings", "slug": "bridal-rings"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc, ok := h.fake.Doc("/categories", ids[0])
	require.True(t, ok)
	assert.Equal(t, "Bridal Rings", doc["name"])
	assert.Equal(t, "admin.categories.updated", h.pub.last().EventType)

	resp, _ = h.doJSON(t, http.MethodGet, "/admin/categories/cat-404", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdmin_SetStatus(t *testing.T) {
	h := newHarness(t, 600, 100)
	ids := h.fake.Seed("/users", map[string]any{"firstName": "Meera", "status": "active"})
	h.login(t)

	for i := 0; i < 2; i++ {
		resp, _ := h.doJSON(t, http.MethodPatch, "/admin/users/"+ids[0]+"/status", StatusRequest{Status: "blocked"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	doc, _ := h.fake.Doc("/users", ids[0])
	assert.Equal(t, "blocked", doc["status"])

	resp, env := h.doJSON(t, http.MethodPatch, "/admin/users/"+ids[0]+"/status", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", env.Code)
}

func TestAdmin_UsersListAndDetail(t *testing.T) {
	h := newHarness(t, 600, 100)
	ids := h.fake.Seed("/users",
		map[string]any{"firstName": "Meera", "address": map[string]any{"city": "Kochi"}},
		map[string]any{"firstName": "Ravi"},
	)
	h.fake.Seed("/orders", map[string]any{"merchantOrderId": "BJ-1", "userId": ids[0], "amount": 900})
	h.login(t)

	resp, env := h.doJSON(t, http.MethodGet, "/admin/users", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page api.Page[api.User]
	decodeData(t, env, &page)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Pagination.TotalEntries)

	resp, env = h.doJSON(t, http.MethodGet, "/admin/users/"+ids[0], nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail api.UserDetail
	decodeData(t, env, &detail)
	assert.Equal(t, "Meera", detail.User.FirstName)
	require.NotNil(t, detail.Address)
	assert.Equal(t, "Kochi", detail.Address.City)
	require.Len(t, detail.OrderHistory, 1)
	assert.Equal(t, "BJ-1", detail.OrderHistory[0].MerchantOrderID)
}

func TestGuard_MalformedCookieRedirectsToLogin(t *testing.T) {
	h := newHarness(t, 600, 100)
	u, err := url.Parse(h.srv.URL)
	require.NoError(t, err)
	h.client.Jar.SetCookies(u, []*http.Cookie{{Name: guard.CookieName, Value: "not-a-uuid", Path: "/"}})

	resp, _ := h.do(t, http.MethodGet, "/admin/dashboard", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?from=%2Fadmin%2Fdashboard", resp.Header.Get("Location"))

	resp, _ = h.do(t, http.MethodGet, "/login", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, h.fake.CallsTo("/dashboard"))
}

func TestAdmin_DeleteRequiresConfirmation(t *testing.T) {
	h := newHarness(t, 600, 100)
	ids := h.fake.Seed("/banners", map[string]any{"title": "Diwali", "index": 0})
	h.login(t)

	resp, env := h.doJSON(t, http.MethodDelete, "/admin/banners/"+ids[0], nil)
	assert.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)
	assert.Equal(t, "CONFIRMATION_REQUIRED", env.Code)
	assert.Equal(t, 1, h.fake.Count("/banners"))

	resp, _ = h.doJSON(t, http.MethodDelete, "/admin/banners/"+ids[0]+"?confirm=true", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, h.fake.Count("/banners"))
	assert.Equal(t, "admin.banners.deleted", h.pub.last().EventType)
}

func TestAdmin_BackendRejectionPassesThrough(t *testing.T) {
	h := newHarness(t, 600, 100)
	h.login(t)
	h.fake.FailNext("/dashboard", http.StatusInternalServerError)

	resp, env := h.doJSON(t, http.MethodGet, "/admin/dashboard", nil)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Len(t, h.fake.CallsTo("/dashboard"), 1)
}

// ============================================================================
// Singletons
// ============================================================================

func TestAdmin_SiteSettings(t *testing.T) {
	h := newHarness(t, 600, 100)
	h.login(t)

	resp, env := h.doJSON(t, http.MethodGet, "/admin/settings/site", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var s api.SiteSettings
	decodeData(t, env, &s)
	assert.Equal(t, "INR", s.CurrencyCode)

	s.StoreName = "Bindu Fine Jewellery"
	resp, _ = h.doJSON(t, http.MethodPut, "/admin/settings/site", s)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bindu Fine Jewellery", h.fake.Settings()["storeName"])

	s.CurrencyCode = "rupees"
	resp, _ = h.doJSON(t, http.MethodPut, "/admin/settings/site", s)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdmin_ReplaceShippingCosts(t *testing.T) {
	h := newHarness(t, 600, 100)
	h.login(t)

	resp, _ := h.doJSON(t, http.MethodPut, "/admin/shipping-costs", map[string]any{
		"shipping": []map[string]any{
			{"deliveryType": "standard", "amount": 99, "duration": "5-7 days"},
			{"deliveryType": "express", "amount": 249, "duration": "1-2 days"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, h.fake.Count("/logistics/ship-costs"))

	resp, env := h.doJSON(t, http.MethodGet, "/admin/shipping-costs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page api.Page[api.ShippingCost]
	decodeData(t, env, &page)
	assert.Len(t, page.Items, 2)

	resp, _ = h.doJSON(t, http.MethodPut, "/admin/products", map[string]any{})
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

// ============================================================================
// Uploads and export
// ============================================================================

var pngData = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

func multipartBody(t *testing.T, field string, names ...string) (string, io.Reader) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, n := range names {
		part, err := w.CreateFormFile(field, n)
		require.NoError(t, err)
		_, err = part.Write(pngData)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return w.FormDataContentType(), &buf
}

func TestAdmin_UploadSingle(t *testing.T) {
	h := newHarness(t, 600, 100)
	h.login(t)

	ct, body := multipartBody(t, "file", "ring.png")
	resp, data := h.do(t, http.MethodPost, "/admin/uploads/single", ct, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	var img api.Image
	decodeData(t, env, &img)
	assert.Equal(t, "https://cdn.bindu.test/uploads/ring.png", img.Location)
	assert.Equal(t, "admin.uploads.uploaded", h.pub.last().EventType)
}

func TestAdmin_UploadMultiple(t *testing.T) {
	h := newHarness(t, 600, 100)
	h.login(t)

	ct, body := multipartBody(t, "files", "a.png", "b.png")
	resp, data := h.do(t, http.MethodPost, "/admin/uploads/multiple", ct, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	var imgs []api.Image
	decodeData(t, env, &imgs)
	assert.Len(t, imgs, 2)

	ct, body = multipartBody(t, "wrong-field", "a.png")
	resp, _ = h.do(t, http.MethodPost, "/admin/uploads/multiple", ct, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdmin_UploadFromURLRefusesLoopback(t *testing.T) {
	h := newHarness(t, 600, 100)
	h.login(t)

	resp, env := h.doJSON(t, http.MethodPost, "/admin/uploads/from-url", ImportRequest{URL: h.srv.URL + "/ring.png"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", env.Code)
	assert.Empty(t, h.fake.CallsTo("/uploads/single"))

	resp, _ = h.doJSON(t, http.MethodPost, "/admin/uploads/from-url", ImportRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdmin_ExportOrders(t *testing.T) {
	h := newHarness(t, 600, 100)
	for i := 0; i < 3; i++ {
		h.fake.Seed("/orders", map[string]any{
			"merchantOrderId": fmt.Sprintf("BJ-%d", 1001+i),
			"amount":          1000,
			"status":          "pending",
		})
	}
	h.login(t)

	resp, data := h.do(t, http.MethodGet, "/admin/orders/export.csv", "", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment; filename=\"orders-")
	assert.Equal(t, "3", resp.Header.Get("X-Export-Rows"))

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Order ID,"))
	assert.True(t, strings.HasPrefix(lines[1], "BJ-1001,"))
}

// ============================================================================
// Probes
// ============================================================================

func TestProbesAndMetrics(t *testing.T) {
	h := newHarness(t, 600, 100)

	resp, _ := h.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := h.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "# TYPE")
}
