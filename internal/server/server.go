// Package server exposes the upload -> generate flow over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/stmt2tally/internal/convert"
	"github.com/cleared-dev/stmt2tally/internal/session"
	"github.com/cleared-dev/stmt2tally/internal/tally"
)

// SessionCookie carries the caller's session ID.
const SessionCookie = "stmt2tally_session"

// Options configures request defaults.
type Options struct {
	Layout         string
	Tally          tally.Options // ledger names here are defaults for /api/vouchers
	Format         tally.Format
	MaxUploadBytes int64
}

// Server serves statement uploads and voucher downloads.
type Server struct {
	svc      *convert.Service
	sessions *session.Manager
	opts     Options
	log      logrus.FieldLogger
	metrics  *metrics
	registry *prometheus.Registry
	engine   *gin.Engine
}

// New wires routes. Each Server owns its own Prometheus registry.
func New(svc *convert.Service, sessions *session.Manager, opts Options, log logrus.FieldLogger) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		svc:      svc,
		sessions: sessions,
		opts:     opts,
		log:      log,
		metrics:  newMetrics(reg),
		registry: reg,
		engine:   gin.New(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.Use(gin.Recovery(), s.logRequests())

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := s.engine.Group("/api")
	api.POST("/statements", s.uploadStatement)
	api.GET("/statements/current", s.currentStatement)
	api.POST("/vouchers", s.generateVouchers)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	}
}
