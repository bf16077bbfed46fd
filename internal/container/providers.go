package container

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/funding-workflow/internal/application/dispatcher"
	"github.com/garyjia/funding-workflow/internal/application/port"
	"github.com/garyjia/funding-workflow/internal/application/service"
	"github.com/garyjia/funding-workflow/internal/application/workflow"
	"github.com/garyjia/funding-workflow/internal/infrastructure/external/console"
	infraLark "github.com/garyjia/funding-workflow/internal/infrastructure/external/lark"
	"github.com/garyjia/funding-workflow/internal/infrastructure/identity"
	"github.com/garyjia/funding-workflow/internal/infrastructure/persistence/kv"
	infraRedis "github.com/garyjia/funding-workflow/internal/infrastructure/persistence/redis"
	"github.com/garyjia/funding-workflow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/funding-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/funding-workflow/internal/voucher"
	"github.com/garyjia/funding-workflow/pkg/database"
)

// redisDialTimeout bounds the initial connectivity check
const redisDialTimeout = 5 * time.Second

// StoreBundle holds the key-value store and how to release it.
type StoreBundle struct {
	KV    port.KVStore
	Close func() error
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Requests  port.FundingRequestRepository
	Sequences port.SequenceRepository
}

// IdentityBundle holds role resolution and caller identification.
type IdentityBundle struct {
	Directory port.RoleDirectory
	Provider  port.IdentityProvider
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Submissions   service.SubmissionService
	Notifications service.NotificationService
}

// ProvideStore opens the configured key-value store.
// For sqlite the schema migrations run before the store is returned.
func ProvideStore(cfg *StoreConfig, logger *zap.Logger) (*StoreBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("store config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch cfg.Driver {
	case StoreSQLite:
		db, err := database.New(database.Config{
			Path:            cfg.Path,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		}, logger)
		if err != nil {
			return nil, err
		}

		if err := database.NewMigrator(db, logger).Run(database.Schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		return &StoreBundle{
			KV:    sqlite.NewKVStore(db, logger),
			Close: db.Close,
		}, nil

	case StoreRedis:
		rcfg := infraRedis.Config{
			Addr:              cfg.RedisAddr,
			Password:          cfg.RedisPassword,
			DB:                cfg.RedisDB,
			PoolSize:          cfg.RedisPoolSize,
			KeyPrefix:         cfg.KeyPrefix,
			LockTTL:           cfg.LockTTL,
			LockRetryInterval: cfg.LockRetryInterval,
			LockRetries:       cfg.LockRetries,
		}

		ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
		defer cancel()

		client, err := infraRedis.NewClient(ctx, rcfg)
		if err != nil {
			return nil, err
		}

		store := infraRedis.NewKVStore(client, rcfg, logger)
		return &StoreBundle{
			KV:    store,
			Close: store.Close,
		}, nil

	case StoreMemory:
		logger.Warn("Using in-memory store, requests are lost on restart")
		return &StoreBundle{
			KV:    kv.NewMemoryStore(),
			Close: func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// ProvideRepositories creates all repositories over a key-value store.
func ProvideRepositories(store port.KVStore, cfg *StoreConfig, logger *zap.Logger) (*RepositoryBundle, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Requests:  repository.NewFundingRequestRepository(store, cfg.UpdateAttempts, logger).WithUpdateBackoff(cfg.UpdateBackoff),
		Sequences: repository.NewSequenceRepository(store, logger),
	}, nil
}

// ProvideIdentity builds the role directory and the header identity provider.
func ProvideIdentity(roles map[string][]string) *IdentityBundle {
	directory := identity.NewConfigRoleDirectory(roles)
	return &IdentityBundle{
		Directory: directory,
		Provider:  identity.NewHeaderProvider(directory),
	}
}

// ProvideNotifier creates the configured message transport.
func ProvideNotifier(cfg *NotifierConfig, logger *zap.Logger) (port.Notifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("notifier config is required")
	}

	switch cfg.Driver {
	case NotifierLark:
		client := infraLark.NewSDKClient(infraLark.Config{
			AppID:     cfg.AppID,
			AppSecret: cfg.AppSecret,
		}, logger)
		return infraLark.NewNotifier(infraLark.NewMessageAPI(client, logger), logger), nil
	case NotifierConsole:
		return console.NewNotifier(logger), nil
	default:
		return nil, fmt.Errorf("unknown notifier driver %q", cfg.Driver)
	}
}

// ProvideDispatcher creates the event dispatcher.
// Returns dispatcher.Dispatcher implementation.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(NewZapLogger(logger)),
	), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	Directory  port.RoleDirectory
	Notifier   port.Notifier
	Dispatcher dispatcher.Dispatcher
	BaseURL    string
	Logger     *zap.Logger
}

// ProvideServices creates the application services and subscribes the
// notification service to the dispatcher.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}

	serviceLogger := NewZapLogger(deps.Logger)

	notifications := service.NewNotificationService(
		deps.Repos.Requests,
		deps.Notifier,
		deps.Directory,
		deps.BaseURL,
		serviceLogger,
	)
	notifications.Register(deps.Dispatcher)

	submissions := service.NewSubmissionService(
		service.NewIDAllocator(deps.Repos.Sequences, time.Now),
		deps.Repos.Requests,
		deps.Dispatcher,
		serviceLogger,
	)

	return &ServiceBundle{
		Submissions:   submissions,
		Notifications: notifications,
	}, nil
}

// ProvideEngine creates the lifecycle engine.
func ProvideEngine(repos *RepositoryBundle, d dispatcher.Dispatcher, logger *zap.Logger) (workflow.Engine, error) {
	if repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if d == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	return workflow.NewEngine(
		repos.Requests,
		workflow.WithDispatcher(d),
		workflow.WithLogger(NewZapLogger(logger)),
	), nil
}

// ProvidePaymentSheet creates the disburser workbook builder.
func ProvidePaymentSheet(organization string, logger *zap.Logger) *voucher.PaymentSheet {
	return voucher.NewPaymentSheet(organization, logger)
}
