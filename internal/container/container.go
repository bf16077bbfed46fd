package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/funding-workflow/internal/application/dispatcher"
	"github.com/garyjia/funding-workflow/internal/application/port"
	"github.com/garyjia/funding-workflow/internal/application/workflow"
	httpserver "github.com/garyjia/funding-workflow/internal/interfaces/http"
	"github.com/garyjia/funding-workflow/internal/voucher"
)

// healthTimeout bounds each component probe in Health
const healthTimeout = 2 * time.Second

// Container manages all application dependencies and lifecycle.
// Components start in dependency order and close in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure
	store        *StoreBundle
	repositories *RepositoryBundle
	identity     *IdentityBundle
	notifier     port.Notifier
	paymentSheet *voucher.PaymentSheet

	// Application
	dispatcher dispatcher.Dispatcher
	engine     workflow.Engine
	services   *ServiceBundle

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components in dependency order:
// 1. Store and repositories
// 2. Role directory and identity provider
// 3. Notifier
// 4. Event dispatcher
// 5. Services and lifecycle engine
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	// Step 1: Initialize store and repositories
	if err := c.initStore(); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	c.logger.Info("Store initialized", zap.String("driver", c.config.Store.Driver))

	// Step 2: Initialize identity
	c.identity = ProvideIdentity(c.config.Roles)
	c.logger.Info("Identity initialized", zap.Int("role_assignments", len(c.config.Roles)))

	// Step 3: Initialize notifier
	notifier, err := ProvideNotifier(&c.config.Notifier, c.logger)
	if err != nil {
		c.closeStore()
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}
	c.notifier = notifier
	c.logger.Info("Notifier initialized", zap.String("driver", c.config.Notifier.Driver))

	// Step 4: Initialize dispatcher
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		c.closeStore()
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.dispatcher = disp

	// Step 5: Initialize services and engine
	if err := c.initServices(); err != nil {
		c.dispatcher.Close()
		c.closeStore()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	c.paymentSheet = ProvidePaymentSheet(c.config.Server.Organization, c.logger)

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Step 1: Close dispatcher, waiting for in-flight notifications
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	// Step 2: Close store
	if err := c.closeStore(); err != nil {
		c.logger.Error("Failed to close store", zap.Error(err))
		errs = append(errs, fmt.Errorf("close store: %w", err))
	} else {
		c.logger.Info("Store closed")
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	// Check store
	if c.store != nil {
		pingCtx, cancel := context.WithTimeout(ctx, healthTimeout)
		err := c.store.KV.Ping(pingCtx)
		cancel()
		if err != nil {
			status.Components["store"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["store"] = ComponentHealth{Healthy: true}
		}
	} else {
		status.Components["store"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	// Check dispatcher
	if c.dispatcher != nil {
		status.Components["dispatcher"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["dispatcher"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	// Check notifier
	if c.notifier != nil {
		status.Components["notifier"] = ComponentHealth{
			Healthy: true,
			Message: c.config.Notifier.Driver,
		}
	} else {
		status.Components["notifier"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	return status
}

func (c *Container) initStore() error {
	store, err := ProvideStore(&c.config.Store, c.logger)
	if err != nil {
		return err
	}
	c.store = store

	repos, err := ProvideRepositories(store.KV, &c.config.Store, c.logger)
	if err != nil {
		c.closeStore()
		return err
	}
	c.repositories = repos
	return nil
}

func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Repos:      c.repositories,
		Directory:  c.identity.Directory,
		Notifier:   c.notifier,
		Dispatcher: c.dispatcher,
		BaseURL:    c.config.Server.BaseURL,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services

	engine, err := ProvideEngine(c.repositories, c.dispatcher, c.logger)
	if err != nil {
		return err
	}
	c.engine = engine
	return nil
}

func (c *Container) closeStore() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

// HTTPDependencies returns what the HTTP server needs from the container.
func (c *Container) HTTPDependencies() httpserver.Dependencies {
	deps := httpserver.Dependencies{
		Engine:       c.engine,
		PaymentSheet: c.paymentSheet,
	}
	if c.services != nil {
		deps.Submissions = c.services.Submissions
	}
	if c.identity != nil {
		deps.Identity = c.identity.Provider
	}
	if c.store != nil {
		deps.Store = c.store.KV
	}
	return deps
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Engine returns the lifecycle engine.
func (c *Container) Engine() workflow.Engine {
	return c.engine
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Notifier returns the configured notifier.
func (c *Container) Notifier() port.Notifier {
	return c.notifier
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

// ZapLogger adapts zap.Logger to the key/value Logger interfaces of the
// application and HTTP layers.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger wraps logger
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: logger}
}

func (a *ZapLogger) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *ZapLogger) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
