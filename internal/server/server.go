// Package server exposes the study service over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sky-flux/vocab/internal/study"
)

// Server is the vocabulary HTTP API.
type Server struct {
	svc    *study.Service
	log    *slog.Logger
	router *gin.Engine
}

// Option configures a Server.
type Option func(*options)

type options struct {
	origins []string
}

// WithAllowedOrigins enables CORS for the given origins. "*" allows any
// origin; no origins leaves CORS off.
func WithAllowedOrigins(origins ...string) Option {
	return func(o *options) { o.origins = append(o.origins, origins...) }
}

// New creates a Server and registers its routes.
func New(svc *study.Service, log *slog.Logger, opts ...Option) *Server {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))
	if len(o.origins) > 0 {
		router.Use(cors.New(corsConfig(o.origins)))
	}

	s := &Server{
		svc:    svc,
		log:    log,
		router: router,
	}

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("/study", s.handleStudy)
		api.GET("/stats", s.handleStats)
		api.GET("/words", s.handleListWords)
		api.POST("/words", s.handleCreateWord)
		api.GET("/words/:id", s.handleGetWord)
		api.PUT("/words/:id", s.handleRenameWord)
		api.DELETE("/words/:id", s.handleDeleteWord)
		api.POST("/words/:id/update", s.handleReview)
		api.POST("/words/:id/reschedule", s.handleReschedule)
	}

	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("http server stopped")
	return nil
}

// requestLogger logs one line per request.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
