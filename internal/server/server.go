package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"moodwatch/internal/config"
	"moodwatch/internal/handler"
	"moodwatch/internal/metrics"
	"moodwatch/internal/middleware"
	"moodwatch/internal/service"
)

// Deps are the services the HTTP layer exposes.
type Deps struct {
	Entries  service.EntryService
	Insights service.InsightsService
	Metrics  *metrics.Collector
}

type Server struct {
	router *gin.Engine
	cfg    *config.Config
	deps   Deps
	log    *logrus.Logger
	logger *zap.Logger
}

// NewServer builds the router. log receives the access log, logger everything else.
func NewServer(cfg *config.Config, deps Deps, log *logrus.Logger, logger *zap.Logger) *Server {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(log),
		deps.Metrics.Middleware(),
		cors(),
	)

	s := &Server{
		router: router,
		cfg:    cfg,
		deps:   deps,
		log:    log,
		logger: logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	entryHandler := handler.NewEntryHandler(s.deps.Entries, s.logger)
	insightsHandler := handler.NewInsightsHandler(s.deps.Insights, s.logger)

	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	s.router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))

	api := s.router.Group("/api")
	if s.cfg.Auth.Enabled {
		api.Use(middleware.AuthMiddleware([]byte(s.cfg.Auth.JWTSecret), s.logger))
	}
	{
		api.GET("/entries", entryHandler.ListEntries)
		api.POST("/entries", entryHandler.CreateEntry)

		insights := api.Group("/insights")
		insights.GET("/summary", insightsHandler.GetSummary)
		insights.GET("/averages", insightsHandler.GetAverages)
		insights.GET("/alerts", insightsHandler.GetAlerts)
		insights.GET("/correlations", insightsHandler.GetCorrelations)
		insights.GET("/recommendations", insightsHandler.GetRecommendations)
		insights.GET("/users/:handle/risk", insightsHandler.GetUserRisk)
	}
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Info("Server exited")
	return nil
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
