package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scandium/internal/middleware"
)

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	ServiceName    string
	Version        string
	DeploymentMode string
	Logger         logrus.FieldLogger
	State          *AppState

	// MetricsPath and Metrics are optional; the route is skipped when
	// Metrics is nil.
	MetricsPath string
	Metrics     http.Handler

	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter builds the example application hosted behind the adapter
func NewRouter(config *RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	SetupMiddleware(router, config)
	SetupRoutes(router, config)
	return router
}

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, config *RouterConfig) {
	if config.State == nil {
		config.State = &AppState{}
	}
	healthHandler := NewHealthHandler(config.ServiceName, config.Version, config.DeploymentMode, config.State)
	echoHandler := NewEchoHandler()

	router.GET("/health", healthHandler.Health)

	echo := router.Group("/echo")
	{
		echo.Any("", echoHandler.Describe)
		echo.POST("/raw", echoHandler.Raw)
	}

	if config.Metrics != nil && config.MetricsPath != "" {
		router.GET(config.MetricsPath, gin.WrapH(config.Metrics))
	}
}

// SetupMiddleware configures global middleware
func SetupMiddleware(router *gin.Engine, config *RouterConfig) {
	// Request ID first so every other middleware can log it
	router.Use(middleware.RequestID())

	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	if config.RateLimitRPS > 0 {
		burst := config.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		router.Use(middleware.RateLimiter(config.RateLimitRPS, burst))
	}

	router.Use(middleware.StructuredLogger(config.Logger))
	router.Use(middleware.ErrorHandler(config.Logger))
}
