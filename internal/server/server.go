package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"followup/internal/storage"
)

// Server provides the HTTP surface of the follow-up task service: the task
// creation endpoint, the today dashboard API, and the static dashboard page.
type Server struct {
	engine    *gin.Engine
	store     storage.Store
	logger    *slog.Logger
	staticDir string
	loc       *time.Location
}

// New constructs the HTTP server with routes and middleware configured.
// loc controls the calendar-day window used by the today dashboard.
func New(store storage.Store, logger *slog.Logger, staticDir string, loc *time.Location) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))

	// A wrong method on a known route must answer 405, not fall through
	// to the static catch-all.
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	srv := &Server{
		engine:    router,
		store:     store,
		logger:    logger,
		staticDir: staticDir,
		loc:       loc,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		tasks := api.Group("/tasks")
		{
			tasks.POST("", s.handleCreateTask)
			tasks.GET("/today", s.handleTasksDueToday)
			tasks.POST("/:id/complete", s.handleCompleteTask)
		}
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// internalError logs the failure and answers an opaque 500; store and other
// infrastructure errors must not leak detail to the caller.
func (s *Server) internalError(c *gin.Context, err error) {
	s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
