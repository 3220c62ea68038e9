// Package web serves the kanban HTTP API, the realtime websocket
// endpoints and the admin surface.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/PRANJALBANSALJI/Kanban/internal/audit"
	"github.com/PRANJALBANSALJI/Kanban/internal/auth"
	"github.com/PRANJALBANSALJI/Kanban/internal/notify"
	"github.com/PRANJALBANSALJI/Kanban/internal/realtime"
	"github.com/PRANJALBANSALJI/Kanban/internal/store"
)

// StartOpts holds configuration for the web server.
type StartOpts struct {
	DB       *gorm.DB
	Hub      *realtime.Hub
	Store    *store.Store
	Sessions *auth.Sessions
	Notifier *notify.Notifier
	Audit    *audit.Logger
	Port     int
	Out      io.Writer
}

// server bundles the dependencies handlers need.
type server struct {
	db       *gorm.DB
	hub      *realtime.Hub
	store    *store.Store
	sessions *auth.Sessions
	notifier *notify.Notifier
	audit    *audit.Logger
}

// NewRouter builds the Gin router with all routes registered. Exposed so
// tests can drive it with httptest without binding a port.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("web: db is required")
	}
	if opts.Hub == nil {
		return nil, fmt.Errorf("web: hub is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("web: store is required")
	}
	if opts.Sessions == nil {
		return nil, fmt.Errorf("web: sessions is required")
	}

	if opts.Notifier == nil {
		opts.Notifier = notify.New(opts.DB, "")
	}
	if opts.Audit == nil {
		opts.Audit = audit.NewLogger(opts.DB)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	s := &server{
		db:       opts.DB,
		hub:      opts.Hub,
		store:    opts.Store,
		sessions: opts.Sessions,
		notifier: opts.Notifier,
		audit:    opts.Audit,
	}
	s.registerRoutes(router)
	return router, nil
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	gin.SetMode(gin.ReleaseMode)

	router, err := NewRouter(opts)
	if err != nil {
		return err
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Kanban running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web: %w", err)
	}
	return nil
}
