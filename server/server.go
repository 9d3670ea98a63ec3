// Package server exposes conversation sessions over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ibreez3/lawbot/chat"
	"github.com/ibreez3/lawbot/service"
	"github.com/ibreez3/lawbot/settings"
)

type Server struct {
	mgr    *service.Manager
	engine *gin.Engine
	log    *slog.Logger
}

func New(mgr *service.Manager, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	r := gin.New()
	srv := &Server{mgr: mgr, engine: r, log: log}
	r.Use(gin.Recovery(), srv.requestLogger())
	srv.registerRoutes()
	return srv
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.GET("/error-categories", func(c *gin.Context) {
		c.JSON(http.StatusOK, service.ErrorCatalog())
	})

	api.POST("/sessions", s.createSession)
	api.DELETE("/sessions/:id", s.deleteSession)
	api.GET("/sessions/:id/messages", s.listMessages)
	api.POST("/sessions/:id/messages", s.sendMessage)
	api.POST("/sessions/:id/retry", s.retry)
	api.DELETE("/sessions/:id/messages", s.clearMessages)

	api.GET("/credential", s.getCredential)
	api.PUT("/credential", s.putCredential)
	api.DELETE("/credential", s.deleteCredential)
}

func (s *Server) Handler() http.Handler { return s.engine }

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Info("HTTP server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

type sendReq struct {
	Message string `json:"message"`
}

type credentialReq struct {
	APIKey string `json:"api_key"`
}

func (s *Server) createSession(c *gin.Context) {
	sess := s.mgr.Create()
	c.JSON(http.StatusCreated, gin.H{"id": sess.ID, "created_at": sess.CreatedAt})
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.mgr.Delete(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listMessages(c *gin.Context) {
	sess, err := s.mgr.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": sess.Messages(), "loading": sess.Loading()})
}

func (s *Server) sendMessage(c *gin.Context) {
	sess, err := s.mgr.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	reply, err := sess.Send(c.Request.Context(), req.Message)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": reply})
}

func (s *Server) retry(c *gin.Context) {
	sess, err := s.mgr.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	reply, err := sess.Retry(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": reply})
}

func (s *Server) clearMessages(c *gin.Context) {
	sess, err := s.mgr.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	sess.Clear()
	c.Status(http.StatusNoContent)
}

func (s *Server) getCredential(c *gin.Context) {
	cred, err := settings.LoadCredential(c.Request.Context(), s.mgr.Store())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"configured": cred != ""})
}

func (s *Server) putCredential(c *gin.Context) {
	var req credentialReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.APIKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "api_key is required"})
		return
	}
	if err := settings.SaveCredential(c.Request.Context(), s.mgr.Store(), req.APIKey); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteCredential(c *gin.Context) {
	if err := settings.SaveCredential(c.Request.Context(), s.mgr.Store(), ""); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrBlankMessage):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrBusy), errors.Is(err, service.ErrNothingToRetry):
		return http.StatusConflict
	case errors.Is(err, chat.ErrMissingCredential):
		return http.StatusPreconditionFailed
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
