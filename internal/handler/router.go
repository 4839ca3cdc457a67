// Package handler is the console's HTTP surface: login and logout, the
// guarded /admin routes over the backend collections, uploads and exports.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/api"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/audit"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/auth"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/content"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/guard"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/session"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/health"
	pkgmiddleware "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/middleware"
)

// Options are the router settings taken from configuration.
type Options struct {
	ServiceName       string
	SecureCookies     bool
	SessionTTL        time.Duration
	CORSOrigins       []string
	PprofEnabled      bool
	PprofAllowedCIDRs []string
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Sessions     *session.Manager
	Clients      *auth.Clients
	Sanitizer    *content.Sanitizer
	Importer     *api.Importer
	Audit        *audit.Recorder
	LoginLimiter *pkgmiddleware.RateLimiter
	Health       *health.Handler
	Logger       *slog.Logger
}

// Handler serves the console routes.
type Handler struct {
	sessions  *session.Manager
	clients   *auth.Clients
	sanitizer *content.Sanitizer
	importer  *api.Importer
	audit     *audit.Recorder
	secure    bool
	ttl       time.Duration
	logger    *slog.Logger
}

// New creates a Handler.
func New(d Deps, opts Options) *Handler {
	rec := d.Audit
	if rec == nil {
		rec = audit.NewRecorder(nil, d.Logger)
	}
	return &Handler{
		sessions:  d.Sessions,
		clients:   d.Clients,
		sanitizer: d.Sanitizer,
		importer:  d.Importer,
		audit:     rec,
		secure:    opts.SecureCookies,
		ttl:       opts.SessionTTL,
		logger:    d.Logger,
	}
}

// NewRouter creates the chi router with the global middleware stack, probe
// and metrics endpoints, the login routes and the guarded /admin group.
func NewRouter(d Deps, opts Options) http.Handler {
	h := New(d, opts)
	logger := d.Logger

	r := chi.NewRouter()

	if len(opts.CORSOrigins) > 0 {
		r.Use(pkgmiddleware.CORS(pkgmiddleware.DefaultCORSConfig(opts.CORSOrigins...)))
	}
	r.Use(pkgmiddleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(pkgmiddleware.RequestLogging(logger))
	r.Use(pkgmiddleware.PrometheusMetrics())
	r.Use(pkgmiddleware.Tracing(opts.ServiceName))
	r.Use(pkgmiddleware.RequestLogger(logger))

	if d.Health != nil {
		r.Get("/health/live", d.Health.LivenessHandler())
		r.Get("/health/ready", d.Health.ReadinessHandler())
	}
	r.Handle("/metrics", promhttp.Handler())

	if opts.PprofEnabled {
		pkgmiddleware.RegisterPprof(r, opts.PprofAllowedCIDRs, logger)
	}

	r.Group(func(r chi.Router) {
		r.Use(pkgmiddleware.NoStore)

		r.With(guard.RedirectAuthenticated(d.Sessions, logger)).Get(guard.LoginPath, h.LoginPage)
		if d.LoginLimiter != nil {
			r.With(d.LoginLimiter.Middleware(logger)).Post(guard.LoginPath, h.Login)
		} else {
			r.Post(guard.LoginPath, h.Login)
		}
		r.Post("/logout", h.Logout)

		r.Route(guard.ProtectedPrefix, func(r chi.Router) {
			r.Use(guard.RequireAdmin(d.Sessions, logger))

			r.Get("/dashboard", h.Dashboard)
			r.Get("/session", h.Session)

			r.Get("/settings/site", h.GetSiteSettings)
			r.Put("/settings/site", h.UpdateSiteSettings)

			r.Post("/uploads/single", h.UploadSingle)
			r.Post("/uploads/multiple", h.UploadMultiple)
			r.Post("/uploads/from-url", h.UploadFromURL)

			r.Get("/orders/export.csv", h.ExportOrders)

			r.Get("/{resource}", h.List)
			r.Post("/{resource}", h.Create)
			r.Put("/{resource}", h.ReplaceAll)
			r.Get("/{resource}/{id}", h.Get)
			r.Put("/{resource}/{id}", h.Update)
			r.Patch("/{resource}/{id}/status", h.SetStatus)
			r.Delete("/{resource}/{id}", h.Delete)
		})
	})

	return r
}
