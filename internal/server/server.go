// Package server contains the HTTP handlers and page rendering for Warbler.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/NoahAppelbaum/warbler/internal/cache"
	"github.com/NoahAppelbaum/warbler/internal/config"
	"github.com/NoahAppelbaum/warbler/internal/database"
	"github.com/NoahAppelbaum/warbler/internal/featureflags"
	"github.com/NoahAppelbaum/warbler/internal/middleware"
	"github.com/NoahAppelbaum/warbler/internal/repository"
	"github.com/NoahAppelbaum/warbler/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

//go:embed views
var viewsFS embed.FS

//go:embed static
var staticFS embed.FS

const sessionCookieName = "warbler_session"

// Server holds all dependencies and provides handlers
type Server struct {
	config       *config.Config
	db           *gorm.DB
	redis        *redis.Client
	app          *fiber.App
	sessions     *session.Store
	featureFlags *featureflags.Manager

	userRepo       repository.UserRepository
	authService    *service.AuthService
	userService    *service.UserService
	messageService *service.MessageService
}

// NewServer connects to the database and Redis and returns a ready Server.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, cache.InitRedis(cfg.RedisURL))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil, in which case sessions are kept in memory and
// rate limiting is off.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}

	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	uow := repository.NewUnitOfWork(db)
	flags := featureflags.NewManager(cfg.FeatureFlags)
	auth := service.NewAuthService(userRepo, cfg.BcryptCost, flags)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		featureFlags:   flags,
		userRepo:       userRepo,
		authService:    auth,
		userService:    service.NewUserService(userRepo, uow, auth),
		messageService: service.NewMessageService(messageRepo, userRepo, uow),
	}
	s.sessions = s.newSessionStore()

	app, err := s.newApp()
	if err != nil {
		return nil, err
	}
	s.app = app
	return s, nil
}

// App returns the configured Fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) newSessionStore() *session.Store {
	cfg := session.Config{
		Expiration:     time.Duration(s.config.SessionTTLHours) * time.Hour,
		KeyLookup:      "cookie:" + sessionCookieName,
		CookieSecure:   s.config.SessionCookieSecure,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		KeyGenerator:   uuid.NewString,
	}
	if s.redis != nil {
		cfg.Storage = cache.NewSessionStorage(s.redis)
	}
	return session.New(cfg)
}

func (s *Server) newApp() (*fiber.App, error) {
	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(views), ".html")
	engine.AddFunc("formatDate", formatDate)

	app := fiber.New(fiber.Config{
		AppName:      "Warbler",
		Views:        engine,
		ViewsLayout:  layout,
		ErrorHandler: s.errorHandler,
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.Metrics(app))

	// External avatars must stay embeddable and the like button redirects back
	// using the Referer.
	app.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
		CrossOriginResourcePolicy: "cross-origin",
		ReferrerPolicy:            "same-origin",
	}))

	app.Use(middleware.StructuredLogger())

	static, _ := fs.Sub(staticFS, "static")
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   http.FS(static),
		MaxAge: 3600,
	}))

	limiterCfg := limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests, please try again later.")
		},
	}
	if s.redis != nil {
		limiterCfg.Storage = cache.NewLimiterStorage(s.redis)
	}
	app.Use(limiter.New(limiterCfg))

	if s.config.CSRFEnabled {
		app.Use(csrf.New(csrf.Config{
			KeyLookup:      "form:_csrf",
			CookieName:     "warbler_csrf",
			CookieSameSite: "Lax",
			CookieSecure:   s.config.SessionCookieSecure,
			CookieHTTPOnly: true,
			Expiration:     time.Duration(s.config.SessionTTLHours) * time.Hour,
			ContextKey:     csrfContextKey,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				middleware.Logger.WarnContext(c.UserContext(), "csrf check failed", "error", err)
				return c.Status(fiber.StatusForbidden).SendString("Invalid or missing CSRF token.")
			},
		}))
	}

	app.Use(middleware.LoadSessionUser(s.sessions))
	app.Use(s.loadCurrentUser)
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	app.Get("/", s.Homepage)

	authLimit := func(name string, limit int, window time.Duration) fiber.Handler {
		return middleware.RateLimit(middleware.RateLimitConfig{
			Redis:    s.redis,
			Name:     name,
			Limit:    limit,
			Window:   window,
			Disabled: s.redis == nil,
		})
	}
	app.Get("/signup", s.SignupForm)
	app.Post("/signup", authLimit("signup", 5, 10*time.Minute), s.Signup)
	app.Get("/login", s.LoginForm)
	app.Post("/login", authLimit("login", 10, 5*time.Minute), s.Login)
	app.Post("/logout", s.Logout)

	protected := middleware.AuthRequired(s.unauthorized)

	users := app.Group("/users", protected)
	users.Get("/", s.ListUsers)
	// Fixed paths before the generic /:id routes.
	users.Get("/profile", s.EditProfileForm)
	users.Post("/profile", s.EditProfile)
	users.Post("/delete", s.DeleteUser)
	users.Post("/follow/:id", s.Follow)
	users.Post("/stop-following/:id", s.StopFollowing)
	users.Get("/:id/following", s.ShowFollowing)
	users.Get("/:id/followers", s.ShowFollowers)
	users.Get("/:id/likes", s.ShowLikes)
	users.Get("/:id", s.ShowUser)

	messages := app.Group("/messages", protected)
	messages.Get("/new", s.NewMessageForm)
	messages.Post("/new", s.CreateMessage)
	messages.Post("/:id/delete", s.DeleteMessage)
	messages.Post("/:id/like", s.ToggleLike)
	messages.Get("/:id", s.ShowMessage)

	app.Use(s.notFound)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional: sessions fall back to memory without it.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"features": s.featureFlags.Snapshot(0),
		"time":     time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		middleware.Logger.Error("error shutting down HTTP server", "error", err)
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
