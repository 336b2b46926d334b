// Package server exposes configuration resolution over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"prinsight.ai/cli/internal/application/ports"
	"prinsight.ai/cli/internal/application/services"
	configports "prinsight.ai/cli/internal/core/ports/config"
)

// Resolver is the part of the resolution service the server needs
type Resolver interface {
	Resolve(ctx context.Context, req services.ResolveRequest) (*services.Resolution, error)
}

// Config holds server options
type Config struct {
	Addr          string
	DefaultPolicy services.Policy
	// Gatherer backs /metrics; nil disables the endpoint
	Gatherer       prometheus.Gatherer
	RequestTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ShutdownGrace  time.Duration
	// Limits apply to the /api/v1 routes
	Limits Limits
	// HealthCheck, when set, backs /healthz with a provider round trip
	HealthCheck func(ctx context.Context) error
}

// DefaultConfig returns the default server options
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		DefaultPolicy:  services.FailClosed,
		RequestTimeout: 30 * time.Second,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		ShutdownGrace:  5 * time.Second,
	}
}

// ResolveBody is the body of POST /api/v1/context/resolve
type ResolveBody struct {
	Repository   string `json:"repository" binding:"required"`
	Organization string `json:"organization"`
	Policy       string `json:"policy"`
	Tool         string `json:"tool"`
	Debug        bool   `json:"debug"`
}

// ErrorBody is returned for every failed request
type ErrorBody struct {
	Error  string `json:"error"`
	Source string `json:"source,omitempty"`
}

// Server is the HTTP API
type Server struct {
	cfg      Config
	resolver Resolver
	logger   ports.LoggingGateway
	engine   *gin.Engine
	started  time.Time
}

// New creates a server and registers its routes
func New(resolver Resolver, logger ports.LoggingGateway, cfg Config) *Server {
	if cfg.DefaultPolicy == "" {
		cfg.DefaultPolicy = services.FailClosed
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 5 * time.Second
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		cfg:      cfg,
		resolver: resolver,
		logger:   logger,
		engine:   engine,
		started:  time.Now(),
	}
	engine.Use(s.requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	if s.cfg.Gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := s.engine.Group("/api/v1")
	if n := s.cfg.Limits.RequestsPerMinute; n > 0 {
		api.Use(s.rateLimit(n))
	}
	if n := s.cfg.Limits.MaxConcurrent; n > 0 {
		api.Use(s.concurrencyLimit(n))
	}
	api.POST("/context/resolve", s.handleResolve)
	api.GET("/context/relevant", s.handleRelevant)
	api.GET("/tools", s.handleTools)
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Log(ports.LogLevelInfo, "HTTP server listening", map[string]interface{}{"addr": s.cfg.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	s.logger.Log(ports.LogLevelInfo, "HTTP server stopped", nil)
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	uptime := time.Since(s.started).Round(time.Second).String()
	if s.cfg.HealthCheck != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := s.cfg.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"error":  err.Error(),
				"uptime": uptime,
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": uptime,
	})
}

func (s *Server) handleTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": services.Tools()})
}

func (s *Server) handleResolve(c *gin.Context) {
	var body ResolveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorBody{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}
	res, ok := s.resolve(c, body.Repository, body.Organization, body.Policy)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, services.NewResolutionView(res, body.Tool, body.Debug))
}

func (s *Server) handleRelevant(c *gin.Context) {
	repo := c.Query("repository")
	if repo == "" {
		c.JSON(http.StatusBadRequest, ErrorBody{Error: "repository query parameter is required"})
		return
	}
	res, ok := s.resolve(c, repo, c.Query("organization"), c.Query("policy"))
	if !ok {
		return
	}
	view := services.NewResolutionView(res, c.Query("tool"), true)
	if strings.Contains(c.GetHeader("Accept"), "text/plain") {
		c.String(http.StatusOK, view.RelevantText)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"repository":              view.Repository,
		"relevant_configurations": view.Relevant,
		"warnings":                view.Warnings,
	})
}

// resolve runs one resolution and writes the error response on failure
func (s *Server) resolve(c *gin.Context, repo, org, policyName string) (*services.Resolution, bool) {
	policy := s.cfg.DefaultPolicy
	if policyName != "" {
		p, err := services.ParsePolicy(strings.ToLower(policyName))
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorBody{Error: err.Error()})
			return nil, false
		}
		policy = p
	}

	ctx := c.Request.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	res, err := s.resolver.Resolve(ctx, services.ResolveRequest{
		Target: configports.Target{Repository: repo, Organization: org},
		Policy: policy,
	})
	if err != nil {
		status, body := errorResponse(err)
		c.JSON(status, body)
		return nil, false
	}
	return res, true
}

func errorResponse(err error) (int, ErrorBody) {
	var resErr *services.ResolutionError
	switch {
	case errors.As(err, &resErr):
		return http.StatusBadGateway, ErrorBody{Error: err.Error(), Source: resErr.Source.String()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorBody{Error: err.Error()}
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, ErrorBody{Error: err.Error()}
	}
	return http.StatusInternalServerError, ErrorBody{Error: err.Error()}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Log(ports.LogLevelDebug, "HTTP request", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}
