// file: internal/server/server.go
// version: 2.0.0
// guid: 4a5b6c7d-8e9f-0a1b-2c3d-4e5f6a7b8c9d

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/lending-library/internal/backup"
	"github.com/jdfalk/lending-library/internal/fileops"
	"github.com/jdfalk/lending-library/internal/library"
	"github.com/jdfalk/lending-library/internal/logger"
	"github.com/jdfalk/lending-library/internal/metrics"
	"github.com/jdfalk/lending-library/internal/realtime"
	"github.com/jdfalk/lending-library/internal/server/middleware"
	"github.com/jdfalk/lending-library/internal/watcher"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// ServerConfig holds server configuration
type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerMinute int
	WatchDataFile      bool
	WatchDebounce      time.Duration
	BasicAuth          middleware.BasicAuthConfig
	Backup             backup.BackupConfig
	WriteConfig        fileops.OperationConfig
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
}

// Server represents the HTTP server. Every handler that touches the service
// holds mu, so the catalog still sees a single logical actor.
type Server struct {
	cfg        ServerConfig
	svc        *library.Service
	log        *zap.Logger
	mu         sync.Mutex
	router     *gin.Engine
	httpServer *http.Server
	watcher    *watcher.Watcher
	events     *realtime.EventHub
}

// NewServer creates a new server instance
func NewServer(svc *library.Service, cfg ServerConfig, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		cfg:    cfg,
		svc:    svc,
		log:    logger.OrNop(log),
		router: router,
	}
	s.events = realtime.NewEventHub(s.log)
	if s.cfg.WriteConfig.Logger == nil {
		s.cfg.WriteConfig.Logger = s.log
	}

	// Set up middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(func(c *gin.Context) {
		c.Set(contextLoggerKey, s.log)
		c.Next()
	})
	router.Use(middleware.AccessLog(s.log))
	if cfg.RateLimitPerMinute > 0 {
		limiter := middleware.NewIPRateLimiter(cfg.RateLimitPerMinute, max(1, cfg.RateLimitPerMinute/4), s.log,
			"/api/health", "/metrics", "/api/v1/events")
		router.Use(limiter.Middleware())
	}
	router.Use(middleware.MaxRequestBodySize(middleware.BodyLimits{
		JSONBytes:   1 << 20,
		UploadBytes: 32 << 20,
		Uploads:     []string{"/api/v1/import"},
	}))
	router.Use(middleware.BasicAuth(cfg.BasicAuth))

	// Register metrics (idempotent)
	metrics.Register()

	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s.httpServer = &http.Server{
		Addr:           net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)),
		Handler:        s.router,
		ReadTimeout:    s.cfg.ReadTimeout,
		WriteTimeout:   s.cfg.WriteTimeout,
		IdleTimeout:    s.cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	if s.cfg.WatchDataFile {
		if err := s.startWatcher(); err != nil {
			s.log.Warn("data file watcher disabled", zap.Error(err))
		}
	}
	defer s.stopWatcher()

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting server", zap.String("addr", s.httpServer.Addr), zap.String("data_file", s.svc.DataFile()),
			zap.Bool("persist_loans", s.svc.PersistsLoans()))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.mu.Lock()
	if s.svc.UnsavedChanges() {
		s.log.Warn("exiting with loan changes that were never saved", zap.String("data_file", s.svc.DataFile()))
	}
	s.mu.Unlock()

	s.log.Info("server exited")
	return nil
}

func (s *Server) startWatcher() error {
	s.watcher = watcher.New(s.onDataFileChanged, s.cfg.WatchDebounce, s.log)
	return s.watcher.Start(s.svc.DataFile())
}

func (s *Server) stopWatcher() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
}

// onDataFileChanged reloads the catalog after an external edit. A file that
// no longer parses is logged and the in-memory catalog is kept.
func (s *Server) onDataFileChanged(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reloaded, err := s.svc.ReloadIfChanged()
	if err != nil {
		s.log.Error("failed to reload data file", zap.String("path", path), zap.Error(err))
		return
	}
	if reloaded {
		s.log.Info("data file reloaded", zap.String("path", path))
		s.events.Publish(realtime.EventCatalogReloaded, "", map[string]any{"titles": len(s.svc.ListAll())})
	}
}

// setupRoutes configures all the routes
func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint (standard path)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/api/health", s.healthCheck)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/books", s.listBooks)
		v1.GET("/books/search", s.searchBooks)
		v1.POST("/books", s.addBook)
		v1.POST("/loans", s.borrowBook)
		v1.POST("/returns", s.returnBook)
		v1.GET("/overdue", s.listOverdue)
		v1.POST("/save", s.saveCatalog)
		v1.GET("/stats", s.getStats)
		v1.POST("/import", s.importCatalog)
		v1.GET("/export", s.exportCatalog)
		v1.GET("/events", s.events.HandleSSE)

		v1.GET("/backups", s.listBackups)
		v1.POST("/backups", s.createBackup)
		v1.POST("/backups/restore", s.restoreBackup)
	}
}
