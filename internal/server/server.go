// Package server exposes the builder over HTTP: the builder page, a JSON API
// for question edits, a websocket of collection events and the form preview.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/goliatone/go-formbuilder/internal/app"
	"github.com/goliatone/go-formbuilder/pkg/model"
)

// Option customises a Server.
type Option func(*Server)

// WithUpgrader overrides the websocket upgrader, e.g. to relax origin checks
// behind a proxy.
func WithUpgrader(u websocket.Upgrader) Option {
	return func(s *Server) {
		s.upgrader = u
	}
}

// Server routes HTTP requests to the application components.
type Server struct {
	app      *app.App
	logger   *zap.Logger
	engine   *gin.Engine
	upgrader websocket.Upgrader

	// previewMu guards preview, the form as last shown by the preview page.
	// Submissions are checked against it, not against later edits.
	previewMu sync.Mutex
	preview   *model.FormModel
}

// New builds the router for a.
func New(a *app.App, options ...Option) *Server {
	s := &Server{
		app:    a,
		logger: a.Logger.Named("http"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	s.engine = s.routes()
	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.observe())

	r.GET("/", s.builderPage)

	api := r.Group("/api")
	api.GET("/questions", s.listQuestions)
	api.POST("/questions", s.addQuestion)
	api.GET("/questions/:id", s.getQuestion)
	api.PATCH("/questions/:id", s.updateQuestion)
	api.DELETE("/questions/:id", s.deleteQuestion)
	api.POST("/render", s.commitForPreview)
	api.GET("/events", s.events)

	endpoint := s.app.Config.Form.Endpoint
	r.GET(endpoint, s.showForm)
	r.Handle(s.app.Config.Form.Method, endpoint, s.submitForm)

	r.GET("/openapi.json", s.openAPI)
	if s.app.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.app.Metrics.Handler()))
	}
	return r
}

// observe logs each request and counts it by route and status class.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		if s.app.Metrics != nil {
			s.app.Metrics.ObserveRequest(route, strconv.Itoa(status/100)+"xx")
		}
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.app.Config.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.app.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.logger.Info("stopped")
	return nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func abortError(c *gin.Context, status int, code string, err error) {
	body := errorBody{Error: code}
	if err != nil {
		body.Message = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}
