// Package app assembles the service: configuration, logging, metrics,
// the prior store, the uncertainty engine, the status service and the
// HTTP server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"

	"riskpulse/internal/breaker"
	"riskpulse/internal/cache"
	"riskpulse/internal/config"
	"riskpulse/internal/errors"
	"riskpulse/internal/infrastructure"
	customMiddleware "riskpulse/internal/middleware"
	"riskpulse/internal/risk"
	"riskpulse/internal/services"
	"riskpulse/internal/signals"
	"riskpulse/internal/store"
	handlers "riskpulse/internal/transport/http"
	ws "riskpulse/internal/websocket"
)

const (
	Version = "v1.0.0"
	AppName = "RiskPulse - Project Uncertainty Engine"
)

// BuildTime is set at compile time via ldflags.
var BuildTime = "unknown"

// PriorStore is the storage surface the application wires: the filter's
// persistence plus lifecycle and health hooks.
type PriorStore interface {
	risk.PriorStore
	Scopes(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	Metrics       *infrastructure.MetricsProviders
	RiskMetrics   *infrastructure.RiskMetrics
	Store         PriorStore
	Source        signals.Source
	Engine        *risk.Engine
	Cache         *cache.AdaptiveCache
	Breaker       *breaker.Breaker
	WebSocketHub  *ws.Hub
	StatusService *services.StatusService
	HealthService *services.HealthService
}

// NewApplication creates a new application instance with dependency injection
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	metricsProviders, err := infrastructure.InitializeMetrics(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	priorStore, err := store.OpenSQLite(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open prior store: %w", err)
	}

	source, err := signals.NewFileSource(cfg.Signals.FilePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open signal source: %w", err)
	}

	app := &Application{
		Config:  cfg,
		Logger:  logger,
		Metrics: metricsProviders,
		Store:   priorStore,
		Source:  source,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices wires the uncertainty core and its collaborators.
func (a *Application) initializeServices() error {
	cfg := a.Config

	riskMetrics, err := infrastructure.NewRiskMetrics(a.Metrics.Meter)
	if err != nil {
		return fmt.Errorf("failed to create risk metrics: %w", err)
	}
	a.RiskMetrics = riskMetrics

	a.Engine = risk.NewEngine(a.Store, a.Logger,
		risk.WithLikelihood(cfg.Risk.Likelihood))

	var extractorOpts []risk.ExtractorOption
	if cfg.Risk.NeutralFallback {
		extractorOpts = append(extractorOpts, risk.WithFallback(risk.Neutral()))
	}
	extractor := risk.NewExtractor(a.Logger, extractorOpts...)

	playbook, err := risk.LoadPlaybook(cfg.Risk.PlaybookPath)
	if err != nil {
		return fmt.Errorf("failed to load mitigation playbook: %w", err)
	}

	a.Cache = cache.New(cache.TTLTable{
		risk.StateDeterministic: cfg.Cache.TTLDeterministic,
		risk.StateProbabilistic: cfg.Cache.TTLProbabilistic,
		risk.StateQuantum:       cfg.Cache.TTLQuantum,
		risk.StateChaotic:       cfg.Cache.TTLChaotic,
		risk.StateVoid:          cfg.Cache.TTLVoid,
	})

	a.Breaker = breaker.New(
		breaker.WithThreshold(cfg.Breaker.FailureThreshold),
		breaker.WithRecovery(cfg.Breaker.RecoveryTimeout),
		breaker.WithStateChange(func(from, to breaker.State) {
			a.RiskMetrics.RecordBreakerTransition(context.Background(), from.String(), to.String())
			a.Logger.Warn("circuit breaker transition",
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		}),
	)

	hub := ws.NewHub(a.Logger)
	hub.Start()
	a.WebSocketHub = hub

	a.StatusService = services.NewStatusService(services.StatusServiceDeps{
		Source:    a.Source,
		Extractor: extractor,
		Engine:    a.Engine,
		Advisor:   risk.NewAdvisor(playbook, a.Logger),
		Projector: risk.NewProjector(cfg.Risk.PredictionHorizon, cfg.Risk.PredictionInterval),
		Cache:     a.Cache,
		Breaker:   a.Breaker,
		Hub:       hub,
		Metrics:   riskMetrics,
		Logger:    a.Logger,
	})

	a.HealthService = services.NewHealthService(Version, BuildTime, a.StatusService, a.Store, a.Logger)

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware that will not interfere with the WebSocket upgrade.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.HandleFunc("/ws", a.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(a.getCORSConfig()))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	// Prometheus endpoint outside the middleware group.
	if a.Metrics != nil && a.Metrics.PrometheusHTTP != nil {
		r.Handle("/metrics", a.Metrics.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	errorHandler := errors.NewErrorHandler(a.Logger, false)
	validation := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
		r.Use(validation.ValidateRequest)

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		riskHandler := handlers.NewRiskHandler(a.StatusService, a.Logger)
		riskHandler.RegisterRoutes(r)
	})
}

// getCORSConfig builds the CORS policy from configuration.
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		ExposedHeaders:   []string{"X-Request-ID", "X-Risk-Stale"},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}

	if a.Config.Security.EnableCORS && len(a.Config.Security.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = a.Config.Security.AllowedOrigins
	}
	return cfg
}

// createServer builds the HTTP server around the router.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// handleWebSocket upgrades the connection and hands it to the hub.
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range a.Config.Security.AllowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.ErrorContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}

	ws.ServeWS(a.WebSocketHub, conn)
}

// Start starts the HTTP server.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting server",
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()
	return nil
}

// Stop gracefully shuts the application down.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "server shutdown error", slog.String("error", err.Error()))
	}

	a.WebSocketHub.Stop()
	a.Cache.Stop()

	if err := a.Metrics.Shutdown(shutdownCtx); err != nil {
		a.Logger.WarnContext(ctx, "metrics shutdown error", slog.String("error", err.Error()))
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.WarnContext(ctx, "store close error", slog.String("error", err.Error()))
	}

	infrastructure.CloseLogFile()
	return nil
}

// Run starts the application and blocks until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return a.Stop(shutdownCtx)
}
