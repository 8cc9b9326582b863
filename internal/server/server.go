package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" // registers pprof handlers on http.DefaultServeMux
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/quic-go/quic-go/http3"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/chrono/internal/config"
	apperrors "github.com/zsiec/chrono/internal/errors"
	"github.com/zsiec/chrono/internal/health"
	"github.com/zsiec/chrono/internal/logger"
	"github.com/zsiec/chrono/internal/marks"
	"github.com/zsiec/chrono/internal/ratelimit"
	"github.com/zsiec/chrono/pkg/fps"
)

// defaults applied to requests that leave them out
type defaults struct {
	rate     fps.Rate
	extended bool
	strict   bool
}

// Server serves the timecode API over HTTP and, when configured, HTTP/3.
type Server struct {
	config       *config.ServerConfig
	router       *mux.Router
	httpServer   *http.Server
	http3Server  *http3.Server
	logger       *logrus.Logger
	sampled      *logger.SampledLogger
	redis        redis.UniversalClient
	marks        marks.Store
	healthMgr    *health.Manager
	errorHandler *apperrors.ErrorHandler
	limiter      *ratelimit.ClientLimiter
	defaults     defaults

	routesOnce sync.Once

	// Additional handlers can be registered
	additionalRoutes []func(*mux.Router)
}

// New creates a server. redisClient may be nil when marks are kept in
// memory.
func New(cfg *config.Config, log *logrus.Logger, store marks.Store, redisClient redis.UniversalClient) (*Server, error) {
	rate, err := cfg.Timecode.Rate()
	if err != nil {
		return nil, fmt.Errorf("timecode default rate: %w", err)
	}

	s := &Server{
		config:       &cfg.Server,
		router:       mux.NewRouter(),
		logger:       log,
		sampled:      logger.NewServiceLogger(logger.NewLogrusAdapter(logger.WithComponent(log, "api"))),
		redis:        redisClient,
		marks:        store,
		healthMgr:    health.NewManager(log),
		errorHandler: apperrors.NewErrorHandler(log),
		defaults: defaults{
			rate:     rate,
			extended: cfg.Timecode.Extended,
			strict:   cfg.Timecode.Strict,
		},
		additionalRoutes: make([]func(*mux.Router), 0),
	}

	if rl := cfg.Server.RateLimit; rl.Enabled {
		s.limiter = ratelimit.NewClientLimiter(rl.RequestsPerSecond, rl.Burst, rl.IdleTimeout)
	}

	s.registerHealthCheckers()
	return s, nil
}

// Start serves until ctx is cancelled or a listener fails, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.setupRoutes()

	go s.healthMgr.StartPeriodicChecks(ctx, 30*time.Second)
	if s.limiter != nil {
		go s.limiter.Run(ctx)
	}

	errCh := make(chan error, 2)

	if s.config.HTTP3Port != 0 {
		if err := s.startHTTP3Server(errCh); err != nil {
			return err
		}
	}
	s.startHTTPServer(errCh)

	var serveErr error
	select {
	case serveErr = <-errCh:
		s.logger.WithError(serveErr).Error("Listener failed, shutting down")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return serveErr
}

// startHTTPServer serves plain HTTP/1.1 on the configured port.
func (s *Server) startHTTPServer(errCh chan<- error) {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.HTTPPort),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	go func() {
		s.logger.WithField("port", s.config.HTTPPort).Info("Starting HTTP server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
}

// startHTTP3Server serves HTTP/3 over QUIC with the configured certificate.
func (s *Server) startHTTP3Server(errCh chan<- error) error {
	cert, err := tls.LoadX509KeyPair(s.config.TLSCertFile, s.config.TLSKeyFile)
	if err != nil {
		return fmt.Errorf("failed to load TLS certificates: %w", err)
	}

	s.http3Server = &http3.Server{
		Addr:    fmt.Sprintf(":%d", s.config.HTTP3Port),
		Handler: s.router,
		TLSConfig: &tls.Config{
			MinVersion:   tls.VersionTLS13,
			NextProtos:   []string{"h3"},
			Certificates: []tls.Certificate{cert},
		},
	}

	go func() {
		s.logger.WithField("port", s.config.HTTP3Port).Info("Starting HTTP/3 server")
		if err := s.http3Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http3 server: %w", err)
		}
	}()
	return nil
}

// Shutdown stops both listeners. The HTTP listener drains in-flight
// requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}
	if s.http3Server != nil {
		// http3.Server has no context-aware shutdown
		if err := s.http3Server.Close(); err != nil {
			errs = append(errs, fmt.Errorf("http3 server: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server shutdown complete")
	return nil
}

// setupRoutes configures all routes. It runs once.
func (s *Server) setupRoutes() {
	s.routesOnce.Do(func() {
		s.router.Use(s.requestIDMiddleware)
		s.router.Use(logger.RequestLoggerMiddleware(s.logger))
		s.router.Use(s.recoveryMiddleware)
		s.router.Use(s.errorHandler.Middleware)
		s.router.Use(s.metricsMiddleware)
		s.router.Use(s.corsMiddleware)
		if s.config.HTTP3Port != 0 {
			s.router.Use(s.altSvcMiddleware)
		}

		// Health endpoints
		healthHandler := health.NewHandler(s.healthMgr)
		s.router.HandleFunc("/health", healthHandler.HandleHealth).Methods("GET")
		s.router.HandleFunc("/ready", healthHandler.HandleReady).Methods("GET")
		s.router.HandleFunc("/live", healthHandler.HandleLive).Methods("GET")

		s.router.HandleFunc("/version", s.handleVersion).Methods("GET")

		api := s.router.PathPrefix("/api/v1").Subrouter()
		if s.limiter != nil {
			api.Use(s.limiter.Middleware(s.errorHandler.HandleError))
		}
		s.registerAPIRoutes(api)

		if s.config.DebugEndpoints {
			s.setupDebugEndpoints()
		}

		for _, registerFunc := range s.additionalRoutes {
			registerFunc(s.router)
		}

		s.router.NotFoundHandler = http.HandlerFunc(s.errorHandler.HandleNotFound)
		s.router.MethodNotAllowedHandler = http.HandlerFunc(s.errorHandler.HandleMethodNotAllowed)
	})
}

func (s *Server) registerAPIRoutes(api *mux.Router) {
	api.HandleFunc("/framerates", s.handleFrameRates).Methods("GET")

	api.HandleFunc("/timecode/parse", s.handleParse).Methods("POST", "OPTIONS")
	api.HandleFunc("/timecode/convert", s.handleConvert).Methods("POST", "OPTIONS")
	api.HandleFunc("/timecode/arithmetic", s.handleArithmetic).Methods("POST", "OPTIONS")
	api.HandleFunc("/timecode/compare", s.handleCompare).Methods("POST", "OPTIONS")
	api.HandleFunc("/timecode/cascade", s.handleCascade).Methods("POST", "OPTIONS")

	api.HandleFunc("/rtp/timecode", s.handleRTPTimecode).Methods("POST", "OPTIONS")

	api.HandleFunc("/marks", s.handleListMarks).Methods("GET")
	api.HandleFunc("/marks", s.handleCreateMark).Methods("POST", "OPTIONS")
	api.HandleFunc("/marks/{id}", s.handleGetMark).Methods("GET")
	api.HandleFunc("/marks/{id}", s.handleUpdateMark).Methods("PUT", "OPTIONS")
	api.HandleFunc("/marks/{id}", s.handleDeleteMark).Methods("DELETE")
}

// registerHealthCheckers registers all health checkers
func (s *Server) registerHealthCheckers() {
	s.healthMgr.Register(health.NewCatalogChecker())

	if s.redis != nil {
		s.healthMgr.Register(health.NewRedisChecker(s.redis))
	}

	if s.marks != nil {
		s.healthMgr.Register(health.NewCheckerFunc("marks", s.marks.Ping))
	}
}

// setupDebugEndpoints exposes pprof and a listener summary.
func (s *Server) setupDebugEndpoints() {
	s.logger.Info("Enabling debug endpoints")

	s.router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)

	s.router.HandleFunc("/debug/info", func(w http.ResponseWriter, r *http.Request) {
		info := map[string]interface{}{
			"protocols": map[string]bool{
				"http3":  s.config.HTTP3Port != 0,
				"http11": true,
			},
			"ports": map[string]int{
				"http3": s.config.HTTP3Port,
				"http":  s.config.HTTPPort,
			},
			"rate_limit":    s.limiter != nil,
			"default_rate":  s.defaults.rate.String(),
			"strict":        s.defaults.strict,
			"log_samplers":  s.sampled.Stats(),
			"debug_enabled": true,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(info)
	}).Methods("GET")
}

// RegisterRoutes adds additional route handlers to the server. It must be
// called before Start or Handler.
func (s *Server) RegisterRoutes(registerFunc func(*mux.Router)) {
	s.additionalRoutes = append(s.additionalRoutes, registerFunc)
}

// Handler returns the fully configured router.
func (s *Server) Handler() http.Handler {
	s.setupRoutes()
	return s.router
}

// GetRouter returns the router for testing.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// HealthManager exposes the health manager so callers can run checks.
func (s *Server) HealthManager() *health.Manager {
	return s.healthMgr
}
