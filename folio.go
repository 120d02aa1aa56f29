// Package folio serves a single-operator site: public content and a contact
// form, plus a session-protected JSON API the admin panel uses to edit the
// content and moderate messages.
package folio

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/auth"
	"github.com/eringen/folio/seed"
	"github.com/eringen/folio/store"
)

// App wires together the stores, session auth, handlers and middleware.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Content  *store.ContentStore
	Messages *store.MessageStore
	Auth     *auth.Auth
	Log      *zap.Logger

	db           *store.DB
	sessions     auth.SessionStore
	redis        *auth.RedisSessions
	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	stopCleanup  func()
}

// New creates a folio App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	a := &App{
		Config: cfg,
		Echo:   e,
		Log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Setup opens the database, loads both documents, and registers middleware
// and routes. Start calls it; tests call it directly and drive a.Echo.
func (a *App) Setup(ctx context.Context) error {
	if err := a.Config.validate(); err != nil {
		return err
	}

	db, err := store.Open(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("folio: open database: %w", err)
	}
	a.db = db

	initial, err := seed.Content(a.Config.SeedPath)
	if err != nil {
		return fmt.Errorf("folio: %w", err)
	}
	if a.Content, err = store.NewContentStore(ctx, db, initial); err != nil {
		return fmt.Errorf("folio: init content: %w", err)
	}
	if a.Messages, err = store.NewMessageStore(ctx, db); err != nil {
		return fmt.Errorf("folio: init messages: %w", err)
	}

	if a.sessions == nil {
		if err := a.openSessions(ctx); err != nil {
			return err
		}
	}
	a.Auth = auth.New(a.Config.verifier(), a.sessions, a.Config.SessionTTL, a.Log)
	a.stopCleanup = a.Auth.StartCleanupScheduler(time.Hour)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) openSessions(ctx context.Context) error {
	if a.Config.RedisURL != "" {
		rs, err := auth.NewRedisSessions(a.Config.RedisURL, "folio:")
		if err != nil {
			return fmt.Errorf("folio: redis sessions: %w", err)
		}
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return fmt.Errorf("folio: redis sessions: %w", err)
		}
		a.redis = rs
		a.sessions = rs
		return nil
	}
	ss, err := auth.NewSQLiteSessions(a.db.SQL())
	if err != nil {
		return fmt.Errorf("folio: sqlite sessions: %w", err)
	}
	a.sessions = ss
	return nil
}

// Start sets up the app and serves HTTP until the server is shut down.
func (a *App) Start(ctx context.Context) error {
	if err := a.Setup(ctx); err != nil {
		return err
	}
	a.Log.Info("server starting", zap.String("addr", a.Config.Addr))
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/", a.Config.StaticDir)
	e.GET("/admin", func(c echo.Context) error {
		return c.File(filepath.Join(a.Config.StaticDir, "admin.html"))
	})

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/login", a.handleLogin)
	authGroup.POST("/logout", a.handleLogout)
	authGroup.GET("/check", a.handleCheck)

	content := api.Group("/content")
	content.GET("", a.handleGetContent)
	content.PUT("/hero", a.handleUpdateHero, a.requireAdmin)
	content.POST("/cards", a.handleAddCard, a.requireAdmin)
	content.PUT("/cards/:id", a.handleUpdateCard, a.requireAdmin)
	content.DELETE("/cards/:id", a.handleDeleteCard, a.requireAdmin)
	content.POST("/projects", a.handleAddProject, a.requireAdmin)
	content.PUT("/projects/:id", a.handleUpdateProject, a.requireAdmin)
	content.DELETE("/projects/:id", a.handleDeleteProject, a.requireAdmin)
	content.PUT("/footer", a.handleUpdateFooter, a.requireAdmin)

	messages := api.Group("/messages")
	messages.POST("", a.handleSubmitMessage, a.contactRateLimit())
	messages.GET("", a.handleListMessages, a.requireAdmin)
	messages.PUT("/:id/read", a.handleMarkRead, a.requireAdmin)
	messages.DELETE("/:id", a.handleDeleteMessage, a.requireAdmin)
}

// Shutdown stops the HTTP server and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	a.Close()
	return err
}

// Close releases the database, Redis client and background workers.
func (a *App) Close() error {
	if a.stopCleanup != nil {
		a.stopCleanup()
		a.stopCleanup = nil
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
