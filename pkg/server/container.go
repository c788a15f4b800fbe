package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scandium/internal/config"
	"scandium/internal/handlers"
	"scandium/internal/logging"
	"scandium/internal/metrics"
	"scandium/pkg/lambda"
)

// Container holds all function dependencies for one execution context
type Container struct {
	Config     *config.Config
	Logger     *logrus.Logger
	Metrics    *metrics.Collector
	State      *handlers.AppState
	Dispatcher *lambda.Dispatcher
	Router     *gin.Engine
}

// NewContainer wires configuration, logging, metrics, the example
// application and the dispatcher. Extra options are applied to the
// dispatcher after the defaults.
func NewContainer(cfg *config.Config, opts ...lambda.Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if err := logging.ConfigureStandard(cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to configure standard logger: %w", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	container := &Container{
		Config: cfg,
		Logger: logger,
		State:  &handlers.AppState{},
	}

	dispatcherOpts := []lambda.Option{lambda.WithLogger(logger)}
	routerConfig := &handlers.RouterConfig{
		ServiceName:    cfg.ServiceName,
		Version:        cfg.Version,
		DeploymentMode: config.GetDeploymentMode(),
		Logger:         logger,
		State:          container.State,
		RateLimitRPS:   cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst: cfg.RateLimit.Burst,
	}

	if cfg.Metrics.Enabled {
		container.Metrics = metrics.NewCollector(cfg.Metrics.Namespace)
		dispatcherOpts = append(dispatcherOpts, lambda.WithObserver(container.Metrics))
		routerConfig.MetricsPath = cfg.Metrics.Path
		routerConfig.Metrics = container.Metrics.Handler()
	}

	container.Dispatcher = lambda.NewDispatcher(append(dispatcherOpts, opts...)...)
	container.Router = handlers.NewRouter(routerConfig)

	if err := handlers.RegisterHooks(container.Dispatcher.Hooks(), container.State, logger); err != nil {
		return nil, fmt.Errorf("failed to register hooks: %w", err)
	}

	return container, nil
}

// Mount registers the application router as the hosted server
func (c *Container) Mount() error {
	return c.Dispatcher.Listen(c.Router)
}

// Handler returns the application router as a plain http.Handler
func (c *Container) Handler() http.Handler {
	return c.Router
}

// Start mounts the router and hands the dispatcher to the Lambda runtime.
// It does not return.
func (c *Container) Start() error {
	if err := c.Mount(); err != nil {
		return err
	}
	c.Logger.WithFields(logrus.Fields{
		"service": c.Config.ServiceName,
		"version": c.Config.Version,
		"hooks":   c.Dispatcher.Hooks().Names(),
	}).Info("Function runtime starting")
	c.Dispatcher.Start()
	return nil
}
