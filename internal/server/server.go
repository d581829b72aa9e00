// Package server exposes the predictor over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/salary-predictor/internal/dataset"
	"github.com/spigell/salary-predictor/internal/logger"
)

// Predictor is the model behind the HTTP surface.
type Predictor interface {
	Predict(ctx context.Context, records []dataset.Record) ([]float64, error)
	Reload(ctx context.Context) error
}

// Config configures the HTTP server.
type Config struct {
	Listen       string        `mapstructure:"listen"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
	// RateLimit is the allowed /predict requests per second. 0 disables it.
	RateLimit float64 `mapstructure:"rate-limit"`
	Burst     int     `mapstructure:"burst"`
	// MaxBodyBytes bounds prediction payloads. 0 means 1 MiB.
	MaxBodyBytes int64 `mapstructure:"max-body-bytes"`
	// ReloadToken guards /reload. Empty leaves it open.
	ReloadToken string `mapstructure:"-"`
}

const defaultMaxBodyBytes = 1 << 20

// Server routes requests to a Predictor.
type Server struct {
	cfg       Config
	predictor Predictor
	logger    *zap.Logger
	metrics   *metrics
	router    chi.Router
	http      *http.Server
}

// New builds the router and the underlying http.Server.
func New(cfg Config, predictor Predictor, log *zap.Logger) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	s := &Server{
		cfg:       cfg,
		predictor: predictor,
		logger:    logger.WithFields(log),
		metrics:   newMetrics(),
	}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger, s.metrics))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = render.Render(w, r, ErrNotFound)
	})

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.Group(func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			burst := s.cfg.Burst
			if burst < 1 {
				burst = 1
			}
			r.Use(rateLimit(rate.NewLimiter(rate.Limit(s.cfg.RateLimit), burst), s.logger))
		}
		r.Post("/predict", s.handlePredict)
	})

	r.With(bearerAuth(s.cfg.ReloadToken)).Post("/reload", s.handleReload)

	return r
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", zap.String("listen", s.cfg.Listen))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.http.Shutdown(ctx)
}
