package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/config"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/observability"
	"github.com/spec-kit/ticket-tracker/internal/persistence"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	"github.com/spec-kit/ticket-tracker/internal/service"
)

// runtime holds what every command needs. db and redis are nil in remote mode.
type runtime struct {
	cfg        *config.Config
	logger     *zap.Logger
	db         *persistence.Database
	redis      *persistence.Redis
	dispatcher events.Dispatcher
	tickets    *service.TicketService
	templates  *service.TemplateService
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, logger, nil
}

func openDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*persistence.Database, error) {
	db, err := persistence.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.Database.RunMigrations {
		if err := persistence.RunMigrations(ctx, db, logger); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return db, nil
}

// newRuntime wires the services. With allowRemote and REMOTE_BASE_URL set they run
// over a remote tracker's API instead of the local database.
func newRuntime(ctx context.Context, allowRemote bool) (*runtime, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, logger: logger, dispatcher: events.NewInMemoryDispatcher()}

	var (
		ticketRepo   repository.TicketRepository
		templateRepo repository.TemplateRepository
		historyRepo  repository.TicketHistoryRepository
	)
	if allowRemote && cfg.Remote.Enabled() {
		client := repository.NewAPIClient(cfg.Remote.BaseURL, cfg.Remote.Token, cfg.Remote.Timeout())
		ticketRepo = repository.NewHTTPTicketRepository(client)
		templateRepo = repository.NewHTTPTemplateRepository(client)
		logger.Debug("using remote tracker", zap.String("base_url", cfg.Remote.BaseURL))
	} else {
		db, err := openDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		rt.db = db
		ticketRepo = repository.NewTicketRepository(db.DB)
		templateRepo = repository.NewTemplateRepository(db.DB)
		historyRepo = repository.NewTicketHistoryRepository(db.DB)

		if cfg.Redis.Addr != "" {
			rt.redis = persistence.NewRedis(ctx, cfg.Redis, logger)
			templateRepo = repository.NewCachedTemplateRepository(templateRepo, rt.redis, cfg.Redis.TTL(), logger)
		}
	}

	rt.tickets = service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		TemplateRepo: templateRepo,
		HistoryRepo:  historyRepo,
		Dispatcher:   rt.dispatcher,
		Logger:       logger,
	})
	rt.templates = service.NewTemplateService(service.TemplateDependencies{
		TemplateRepo: templateRepo,
		TicketRepo:   ticketRepo,
		Dispatcher:   rt.dispatcher,
		Logger:       logger,
	})
	return rt, nil
}

func (rt *runtime) Close() {
	if rt.redis != nil {
		rt.redis.Close()
	}
	if rt.db != nil {
		rt.db.Close()
	}
	_ = rt.logger.Sync()
}
