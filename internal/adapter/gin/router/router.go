package router

import (
	"context"
	"net/http"

	"user-crud-service/api/swagger"
	"user-crud-service/internal/adapter/gin/handler"
	"user-crud-service/internal/adapter/gin/middleware"
	"user-crud-service/internal/adapter/ratelimit"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// DefaultBasePath is where the user routes are mounted when no base path is configured.
const DefaultBasePath = "/api/users"

// Options configures the router.
type Options struct {
	BasePath       string
	SwaggerEnabled bool
	// Limiter may be nil, in which case requests are not limited.
	Limiter *ratelimit.Limiter
	// Ready backs /health. A nil Ready always reports healthy.
	Ready func(ctx context.Context) error
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(userHandler *handler.UserHandler, opts Options, log *zap.Logger) *gin.Engine {
	if opts.BasePath == "" {
		opts.BasePath = DefaultBasePath
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handler.ErrorResponse{Error: "not_found", Detail: "Not Found"})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, handler.ErrorResponse{Error: "method_not_allowed", Detail: "Method Not Allowed"})
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if opts.Ready != nil {
			if err := opts.Ready(c.Request.Context()); err != nil {
				log.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unhealthy",
					"detail": err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	if opts.SwaggerEnabled {
		doc, err := swagger.Document(opts.BasePath)
		if err != nil {
			log.Error("failed to set openapi basePath, serving default document", zap.Error(err))
			doc = swagger.UserSwagger
		}
		router.GET("/openapi.json", func(c *gin.Context) {
			c.Data(http.StatusOK, "application/json", doc)
		})
		router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/openapi.json"),
		)))
	}

	users := router.Group(opts.BasePath)
	users.Use(middleware.RateLimiter(opts.Limiter))
	{
		users.GET("", userHandler.ListUsers)
		users.GET("/", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUser)
		users.POST("/create", userHandler.CreateUser)
		users.PATCH("/update/:id", userHandler.UpdateUser)
		users.DELETE("/delete/:id", userHandler.DeleteUser)
	}

	return router
}
