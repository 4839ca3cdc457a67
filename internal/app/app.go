package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/api"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/audit"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/auth"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/config"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/content"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/handler"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/session"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/database"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/health"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/httpclient"
	pkgkafka "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/kafka"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/middleware"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/tracing"
)

// ServiceName labels logs, metrics and spans.
const ServiceName = "admin-console"

// App wires together all dependencies and runs the admin console.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	httpServer     *http.Server
	sessions       *session.Manager
	limiter        *middleware.RateLimiter
	redis          *redis.Client
	producer       *pkgkafka.Producer
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance: tracer, session store, backend
// clients, audit producer and the HTTP router.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		Insecure:       !cfg.IsProduction(),
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	// Session store.
	store, err := a.sessionStore(ctx, healthHandler)
	if err != nil {
		a.closeInfra()
		return nil, err
	}
	sessions := session.NewManager(store, logger, session.WithTTL(cfg.SessionTTL))
	a.sessions = sessions

	// Backend clients: one transport, one breaker, a cookie jar per session.
	clientCfg := httpclient.DefaultConfig("backend", cfg.Backend())
	clientCfg.Timeout = cfg.BackendTimeout
	clientCfg.MaxRetries = cfg.BackendMaxRetries
	clientCfg.WithCredentials = cfg.BackendCookies
	core, err := httpclient.New(clientCfg)
	if err != nil {
		a.closeInfra()
		return nil, fmt.Errorf("create backend client: %w", err)
	}
	var breaker *httpclient.CircuitBreaker
	if cfg.BreakerEnabled {
		breaker = httpclient.NewCircuitBreaker(core, httpclient.DefaultCircuitBreakerConfig("backend"), logger)
	}
	clients := auth.NewClients(core, breaker, logger)
	sessions.OnClear(clients.Forget)

	healthHandler.RegisterNonCritical("backend", health.HTTPCheck(&http.Client{Timeout: 3 * time.Second}, cfg.Backend()))

	// Audit events go to Kafka only when brokers are configured.
	var publisher audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers, cfg.AuditTopic), logger)
		publisher = a.producer
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
	}
	recorder := audit.NewRecorder(publisher, logger)

	a.limiter = middleware.NewRateLimiter(cfg.LoginPerMinute, cfg.LoginBurst, 10*time.Minute)

	router := handler.NewRouter(handler.Deps{
		Sessions:     sessions,
		Clients:      clients,
		Sanitizer:    content.NewSanitizer(),
		Importer:     api.NewImporter(cfg.ImportTimeout),
		Audit:        recorder,
		LoginLimiter: a.limiter,
		Health:       healthHandler,
		Logger:       logger,
	}, handler.Options{
		ServiceName:       ServiceName,
		SecureCookies:     cfg.SecureCookies(),
		SessionTTL:        cfg.SessionTTL,
		CORSOrigins:       cfg.CORSOrigins,
		PprofEnabled:      cfg.PprofEnabled,
		PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("admin console wired",
		slog.String("backend", cfg.Backend()),
		slog.String("session_store", cfg.SessionStore),
		slog.Bool("breaker", cfg.BreakerEnabled),
		slog.Bool("audit_kafka", recorder.Enabled()),
	)
	return a, nil
}

func (a *App) sessionStore(ctx context.Context, h *health.Handler) (session.Store, error) {
	switch a.cfg.SessionStore {
	case config.StoreFile:
		var opts []session.FileOption
		if a.cfg.SessionSecret != "" {
			opts = append(opts, session.WithSecret([]byte(a.cfg.SessionSecret)))
		} else {
			a.logger.Warn("session files are stored unsealed, set SESSION_FILE_SECRET to seal them")
		}
		fs, err := session.NewFileStore(a.cfg.SessionDir, opts...)
		if err != nil {
			return nil, fmt.Errorf("open session dir: %w", err)
		}
		return fs, nil

	case config.StoreRedis:
		rcfg := database.DefaultRedisConfig()
		rcfg.URL = a.cfg.RedisURL
		rcfg.Host = a.cfg.RedisHost
		rcfg.Port = a.cfg.RedisPort
		client, err := database.NewRedisClient(ctx, rcfg, a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.redis = client
		rs := session.NewRedisStore(client, a.cfg.RedisPrefix, a.cfg.SessionTTL)
		h.RegisterCritical("redis", rs.Ping)
		return rs, nil

	default:
		a.logger.Warn("using in-memory session store, sessions do not survive restarts")
		return session.NewMemoryStore(), nil
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go a.sweepSessions(sweepCtx)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeInfra()
		return err
	}

	return a.Shutdown()
}

// sweepSessions clears expired sessions from stores without native expiry
// until ctx is canceled.
func (a *App) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.SessionSweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.sessions.Sweep(ctx)
			if err != nil {
				a.logger.Warn("session sweep failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				a.logger.Info("expired sessions cleared", slog.Int("count", n))
			}
		}
	}
}

// Shutdown gracefully stops the console in order:
// 1. HTTP server (drain in-flight requests)
// 2. Kafka producer (flush audit events from drained requests)
// 3. Session store connection and the login limiter
// 4. Tracer (flush pending spans)
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.closeInfra(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeInfra releases everything NewApp opened besides the HTTP server.
func (a *App) closeInfra() error {
	var errs []error

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
