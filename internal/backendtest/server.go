// Package backendtest is an in-memory fake of the jewellery backend REST API
// for tests: token auth with refresh, the CRUD collections, uploads and the
// settings singletons.
package backendtest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Call is one request the fake received.
type Call struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
	Body          []byte
}

type account struct {
	password string
	user     map[string]any
}

type collection struct {
	itemKey string
	listKey string
	prefix  string
	seq     int
	docs    map[string]map[string]any
	order   []string
}

// Server is the fake backend. Its API base URL is URL.
type Server struct {
	URL string

	srv *httptest.Server

	mu            sync.Mutex
	accounts      map[string]account
	access        map[string]string
	refresh       map[string]string
	accessSeq     int
	refreshSeq    int
	rotate        bool
	rejectRefresh bool
	refreshDelay  time.Duration
	calls         []Call
	failures      map[string][]int
	collections   map[string]*collection
	settings      map[string]any
	dashboard     map[string]any
}

// New starts a fake backend; it is closed when the test ends.
func New(t interface{ Cleanup(func()) }) *Server {
	s := &Server{
		accounts:    make(map[string]account),
		access:      make(map[string]string),
		refresh:     make(map[string]string),
		failures:    make(map[string][]int),
		collections: make(map[string]*collection),
		settings:    map[string]any{"storeName": "Bindu Jewellery", "currencyCode": "INR", "taxRate": 3.0},
		dashboard: map[string]any{
			"metrics_data":  map[string]any{"orders": 0, "revenue": 0},
			"recent_orders": []any{},
		},
	}

	for _, c := range []struct{ base, key, list, prefix string }{
		{"/products", "result", "result", "prd"},
		{"/categories", "category", "result", "cat"},
		{"/products/variations", "result", "result", "var"},
		{"/products/options", "result", "result", "opt"},
		{"/orders", "result", "result", "ord"},
		{"/users", "user", "users", "usr"},
		{"/banners", "banner", "result", "bnr"},
		{"/discounts", "result", "result", "dsc"},
		{"/blogs", "blog", "result", "blg"},
		{"/media", "media", "result", "med"},
		{"/media-groups", "result", "result", "mgr"},
		{"/logistics/ship-costs", "result", "result", "shp"},
	} {
		s.collections[c.base] = &collection{itemKey: c.key, listKey: c.list, prefix: c.prefix, docs: make(map[string]map[string]any)}
	}

	s.srv = httptest.NewServer(s.routes())
	s.URL = s.srv.URL + "/api"
	t.Cleanup(s.srv.Close)
	return s
}

// Close stops the server.
func (s *Server) Close() { s.srv.Close() }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record, s.injectFailures)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.login)
		r.Post("/auth/regenerate-token", s.regenerate)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAccess)

			r.Get("/dashboard", s.getDashboard)
			r.Get("/settings/site", s.getSettings)
			r.Put("/settings/site", s.putSettings)
			r.Put("/logistics/ship-costs/all", s.putShippingBulk)
			r.Post("/uploads/single", s.uploadSingle)
			r.Post("/uploads/multiple", s.uploadMultiple)

			s.mountCollection(r, "/products", "/products/all")
			s.mountCollection(r, "/categories", "/categories/all")
			s.mountCollection(r, "/products/variations", "/products/variations")
			s.mountCollection(r, "/products/options", "/products/options")
			s.mountCollection(r, "/orders", "/orders/all")
			s.mountCollection(r, "/users", "/users")
			s.mountCollection(r, "/banners", "/banners")
			s.mountCollection(r, "/discounts", "/discounts")
			s.mountCollection(r, "/blogs", "/blogs/all")
			s.mountCollection(r, "/media", "/media/all")
			s.mountCollection(r, "/media-groups", "/media-groups/admin/all")
			s.mountCollection(r, "/logistics/ship-costs", "/logistics/ship-costs/all")
		})
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method:        r.Method,
			Path:          strings.TrimPrefix(r.URL.Path, "/api"),
			Query:         r.URL.Query(),
			Authorization: r.Header.Get("Authorization"),
			Body:          body,
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api")
		s.mu.Lock()
		var status int
		if q := s.failures[path]; len(q) > 0 {
			status, s.failures[path] = q[0], q[1:]
		}
		s.mu.Unlock()
		if status != 0 {
			writeJSON(w, status, map[string]any{"success": false, "message": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FailNext makes the next requests to path answer with the given statuses,
// one per request, before normal handling resumes.
func (s *Server) FailNext(path string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = append(s.failures[path], statuses...)
}

// Calls returns every request received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the requests received for path.
func (s *Server) CallsTo(path string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets recorded requests.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "message": "ok", "data": data})
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

func newID(prefix string, n int) string { return fmt.Sprintf("%s-%d", prefix, n) }
