// Package server exposes the prediction router over HTTP: an HTML form, a JSON
// API, a health check and Prometheus metrics.
package server

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ezoic/medcost/insurance"
	medErrors "github.com/ezoic/medcost/pkg/errors"
	"github.com/ezoic/medcost/pkg/log"
	"github.com/ezoic/medcost/router"
)

//go:embed templates/*.html
var templateFS embed.FS

// Predictor is the part of *router.Router the server needs.
type Predictor interface {
	Predict(ctx context.Context, req router.Request) (*router.Prediction, error)
}

// Options configures a Server.
type Options struct {
	Mode    string // gin mode, default release
	Bounds  insurance.Bounds
	Metrics *Metrics
	Logger  log.Logger
}

// Server is the HTTP front end.
type Server struct {
	engine    *gin.Engine
	predictor Predictor
	metrics   *Metrics
	bounds    insurance.Bounds
	logger    log.Logger
}

// New builds the gin engine and registers every route.
func New(p Predictor, opts Options) (*Server, error) {
	if opts.Mode == "" {
		opts.Mode = gin.ReleaseMode
	}
	gin.SetMode(opts.Mode)
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.Logger == nil {
		opts.Logger = log.GetLoggerWithName("server")
	}
	if opts.Bounds == (insurance.Bounds{}) {
		opts.Bounds = insurance.DefaultBounds
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, medErrors.Wrap(err, "parse templates")
	}

	s := &Server{
		engine:    gin.New(),
		predictor: p,
		metrics:   opts.Metrics,
		bounds:    opts.Bounds,
		logger:    opts.Logger,
	}
	s.engine.SetHTMLTemplate(tmpl)
	s.engine.Use(requestID(), requestLogger(s.logger), recovery(s.logger))

	s.engine.GET("/health/self", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "true"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))
	s.engine.GET("/", s.handleIndex)
	s.engine.POST("/predict", s.handleFormPredict)

	api := s.engine.Group("/api/v1")
	{
		api.POST("/predict", s.handleAPIPredict)
	}
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", addr, log.PhaseKey, log.PhaseStartup)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if medErrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return medErrors.Wrapf(err, "listen %s", addr)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("Server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return medErrors.Wrap(err, "shutdown")
		}
		return nil
	}
}
