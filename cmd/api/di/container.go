package di

import (
	"context"
	"errors"
	"fmt"

	"user-crud-service/cmd/api/infrastructure"
	"user-crud-service/internal/adapter/db/postgres"
	ginhandler "user-crud-service/internal/adapter/gin/handler"
	"user-crud-service/internal/adapter/grpc/middleware"
	"user-crud-service/internal/adapter/ratelimit"
	"user-crud-service/internal/config"
	"user-crud-service/internal/usecase/user"
	redisclient "user-crud-service/pkg/redis"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *zap.Logger
	DB              *gorm.DB
	RedisClient     *redisclient.Client
	UserUC          user.UserUsecase
	Limiter         *ratelimit.Limiter
	GRPCRateLimiter *middleware.RateLimiter
	GinHandler      *ginhandler.UserHandler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	repo := postgres.NewUserRepoPG(db, l)
	userUC := user.NewWithLimits(repo, l, user.PageLimits{
		DefaultSize: cfg.Pagination.DefaultSize,
		MaxSize:     cfg.Pagination.MaxSize,
	})

	// a nil client leaves the limiter disabled
	var limiterClient redis.UniversalClient
	if rdb != nil {
		limiterClient = rdb.Client
	}
	limiter := ratelimit.New(limiterClient, ratelimit.Config{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstCapacity:     cfg.RateLimit.BurstCapacity,
		Enabled:           cfg.RateLimit.Enabled,
	}, l)

	return &Container{
		Config:          cfg,
		Logger:          l,
		DB:              db,
		RedisClient:     rdb,
		UserUC:          userUC,
		Limiter:         limiter,
		GRPCRateLimiter: middleware.NewRateLimiter(limiter, l),
		GinHandler:      ginhandler.NewUserHandler(userUC, l),
	}, nil
}

// Ready reports whether the database answers. It backs the HTTP health endpoint.
// An unreachable Redis only degrades rate limiting, so it is logged and not reported.
func (c *Container) Ready(ctx context.Context) error {
	if c.RedisClient != nil {
		if err := c.RedisClient.Ping(ctx); err != nil {
			c.Logger.Warn("Redis unreachable, rate limiter failing open", zap.Error(err))
		}
	}
	return infrastructure.PingDatabase(ctx, c.DB)
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
