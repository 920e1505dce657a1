// Package bootstrap wires the process-wide dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/NoahAppelbaum/warbler/internal/cache"
	"github.com/NoahAppelbaum/warbler/internal/config"
	"github.com/NoahAppelbaum/warbler/internal/database"
	"github.com/NoahAppelbaum/warbler/internal/middleware"
	"github.com/NoahAppelbaum/warbler/internal/observability"
	"github.com/NoahAppelbaum/warbler/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Version is reported to the tracer as the service version.
var Version = "dev"

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty database with demo users and messages.
	SeedDemo bool
}

// Runtime holds the initialized dependencies.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client

	shutdownTracing func(context.Context) error
}

// InitLogging installs the environment's logger for the app and observability packages.
func InitLogging(cfg *config.Config) {
	middleware.Logger = middleware.NewLogger(cfg.Env)
	observability.SetLogger(middleware.Logger)
}

// InitRuntime sets up logging and tracing, connects to DB and Redis and
// optionally seeds demo data.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	InitLogging(cfg)

	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceVersion: Version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// nil when Redis is unreachable; callers fall back to in-memory storage
	rdb := cache.InitRedis(cfg.RedisURL)

	if opts.SeedDemo {
		if err := seedIfEmpty(db, cfg); err != nil {
			_ = shutdown(ctx)
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return &Runtime{DB: db, Redis: rdb, shutdownTracing: shutdown}, nil
}

// Close flushes traces. The server owns and closes DB and Redis.
func (r *Runtime) Close(ctx context.Context) error {
	if r == nil || r.shutdownTracing == nil {
		return nil
	}
	return r.shutdownTracing(ctx)
}

func seedIfEmpty(db *gorm.DB, cfg *config.Config) error {
	var count int64
	if err := db.Table("users").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		middleware.Logger.Info("demo seed skipped, users already present", "users", count)
		return nil
	}

	_, err := seed.Seed(db, seed.Options{
		NumUsers:        10,
		MessagesPerUser: 5,
		FollowsPerUser:  3,
		LikesPerUser:    5,
		Factory:         seed.FactoryOptions{BcryptCost: cfg.BcryptCost},
	})
	return err
}
