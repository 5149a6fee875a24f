// Package api serves the taskboard HTTP API with gin.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/nhle/taskboard/internal/store"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Server is the HTTP API server.
type Server struct {
	router *gin.Engine
	store  store.Store
	logger *log.Logger
}

// NewServer builds the router on top of st.
func NewServer(st store.Store, logger *log.Logger) *Server {
	router := gin.New()
	router.Use(recovery(logger))
	router.Use(requestLogger(logger))

	s := &Server{
		router: router,
		store:  st,
		logger: logger,
	}
	s.setupRoutes()
	return s
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("api shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// setupRoutes registers every API route.
func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	{
		crs := api.Group("/change-requests")
		{
			crs.GET("", s.handleListChangeRequests())
			crs.POST("", s.handleCreateChangeRequest())
			crs.GET("/:id", s.handleGetChangeRequest())
			crs.PUT("/:id", s.handleUpdateChangeRequest())
			crs.DELETE("/:id", s.handleDeleteChangeRequest())
			crs.GET("/:id/comments", s.handleListComments())
			crs.POST("/:id/comments", s.handleCreateComment())
		}

		todos := api.Group("/todos")
		{
			todos.GET("", s.handleListTodos())
			todos.POST("", s.handleCreateTodo())
			todos.GET("/:id", s.handleGetTodo())
			todos.PUT("/:id", s.handleUpdateTodo())
			todos.DELETE("/:id", s.handleDeleteTodo())
		}
	}
}
