package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	ginhandler "user-crud-service/internal/adapter/gin/handler"
	ginrouter "user-crud-service/internal/adapter/gin/router"
	"user-crud-service/internal/adapter/grpc/middleware"
	"user-crud-service/internal/adapter/ratelimit"
	"user-crud-service/internal/config"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// Server struct holds all server dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	Gin    *http.Server
	GRPC   *grpc.Server
	Health *health.Server
}

// Deps are the adapters the servers are built from.
type Deps struct {
	Handler         *ginhandler.UserHandler
	Limiter         *ratelimit.Limiter
	GRPCRateLimiter *middleware.RateLimiter
	Ready           func(ctx context.Context) error
}

// New creates a new server instance
func New(cfg *config.Config, l *zap.Logger, deps Deps) *Server {
	grpcServer, healthServer := SetupGRPC(l, deps.GRPCRateLimiter)

	return &Server{
		Config: cfg,
		Logger: l,
		Gin: SetupGinServer(deps.Handler, ginrouter.Options{
			BasePath:       cfg.App.BasePath,
			SwaggerEnabled: cfg.App.SwaggerEnabled,
			Limiter:        deps.Limiter,
			Ready:          deps.Ready,
		}, httpAddress(cfg), l),
		GRPC:   grpcServer,
		Health: healthServer,
	}
}

// Start listens on the configured ports and serves until a server fails or is shut down.
// The gRPC server is skipped when GRPC_PORT is empty.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}

	httpLis, err := lc.Listen(ctx, "tcp", httpAddress(s.Config))
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", httpAddress(s.Config), err)
	}

	var grpcLis net.Listener
	if s.Config.App.GRPCPort != "" {
		grpcLis, err = lc.Listen(ctx, "tcp", grpcAddress(s.Config))
		if err != nil {
			_ = httpLis.Close()
			return fmt.Errorf("failed to listen on %s: %w", grpcAddress(s.Config), err)
		}
	}

	return s.Serve(httpLis, grpcLis)
}

// Serve runs the servers on the given listeners. grpcLis may be nil.
func (s *Server) Serve(httpLis, grpcLis net.Listener) error {
	var g errgroup.Group

	g.Go(func() error {
		s.Logger.Info("HTTP server running", zap.String("address", httpLis.Addr().String()))
		if err := s.Gin.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if grpcLis != nil {
		g.Go(func() error {
			s.Logger.Info("gRPC server running", zap.String("address", grpcLis.Addr().String()))
			if err := s.GRPC.Serve(grpcLis); err != nil {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// Shutdown marks the service NOT_SERVING and stops both servers.
// The gRPC server is stopped forcefully if ctx expires before in-flight calls finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Health.Shutdown()

	var errs []error
	if err := s.Gin.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	stopped := make(chan struct{})
	go func() {
		s.GRPC.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		s.GRPC.Stop()
		errs = append(errs, fmt.Errorf("grpc shutdown: %w", ctx.Err()))
	}

	return errors.Join(errs...)
}

// grpcAddress returns the gRPC server address
func grpcAddress(cfg *config.Config) string {
	return ":" + cfg.App.GRPCPort
}

// httpAddress returns the HTTP server address
func httpAddress(cfg *config.Config) string {
	return ":" + cfg.App.HTTPPort
}
