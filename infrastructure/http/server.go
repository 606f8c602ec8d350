// Package http hosts the public REST and WebSocket surface of the service.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dm-lab/auth"
	"dm-lab/infrastructure/http/handlers"
)

const shutdownTimeout = 5 * time.Second

// Server is the HTTP front of the service, run as a supervised worker:
// it serves until its context is canceled, then drains in-flight requests.
type Server struct {
	log *slog.Logger
	srv *http.Server
}

func NewServer(log *slog.Logger, host string, port int,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	conversationHandler *handlers.ConversationHandler,
	wsHandler *handlers.WSHandler) *Server {

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)

	// The WebSocket endpoint authenticates itself via query token.
	router.GET("/ws", wsHandler.Handle)

	authed := router.Group("/api")
	authed.Use(auth.Middleware())

	authed.GET("/profile", userHandler.GetProfile)
	authed.PUT("/profile", userHandler.UpdateProfile)
	authed.PUT("/profile/avatar", userHandler.UploadAvatar)
	authed.POST("/profile/password", userHandler.ChangePassword)
	authed.GET("/users/search", userHandler.Search)
	authed.GET("/avatars/:id", userHandler.GetAvatar)

	authed.POST("/conversations", conversationHandler.Create)
	authed.GET("/conversations", conversationHandler.List)
	authed.GET("/conversations/:id", conversationHandler.Get)
	authed.DELETE("/conversations/:id", conversationHandler.Delete)
	authed.GET("/conversations/:id/messages", conversationHandler.ListMessages)
	authed.POST("/conversations/:id/messages", conversationHandler.SendMessage)

	return &Server{
		log: log,
		srv: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", host, port),
			Handler: router,
		},
	}
}

// Run serves until ctx is canceled. A clean shutdown returns nil so the
// supervisor does not restart the server.
func (s *Server) Run(ctx context.Context) error {
	failed := make(chan error, 1)
	go func() {
		s.log.Info(fmt.Sprintf("HTTP server listening on %s", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	select {
	case err := <-failed:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("HTTP server shutdown was not clean", "error", err)
		}
		return nil
	}
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("Request handled",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
