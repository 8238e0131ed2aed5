package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/config"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/persistence"
	"github.com/spec-kit/ticket-tracker/internal/repository"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handle(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordedEvents) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []events.EventType{}
	for _, event := range r.events {
		out = append(out, event.Type)
	}
	return out
}

type fixture struct {
	tickets   *TicketService
	templates *TemplateService
	recorded  *recordedEvents
	template  *domain.Template

	ticketRepo   repository.TicketRepository
	templateRepo repository.TemplateRepository
	historyRepo  repository.TicketHistoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	db, err := persistence.Open(ctx, config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		DSN:          filepath.Join(t.TempDir(), "tracker.db"),
		MaxOpenConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, persistence.RunMigrations(ctx, db, zap.NewNop()))

	recorded := &recordedEvents{}
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.SubscribeAll(recorded.handle)

	ticketRepo := repository.NewTicketRepository(db.DB)
	templateRepo := repository.NewTemplateRepository(db.DB)
	historyRepo := repository.NewTicketHistoryRepository(db.DB)
	f := &fixture{
		tickets: NewTicketService(TicketDependencies{
			TicketRepo:   ticketRepo,
			TemplateRepo: templateRepo,
			HistoryRepo:  historyRepo,
			Dispatcher:   dispatcher,
		}),
		templates: NewTemplateService(TemplateDependencies{
			TemplateRepo: templateRepo,
			TicketRepo:   ticketRepo,
			Dispatcher:   dispatcher,
		}),
		recorded:     recorded,
		ticketRepo:   ticketRepo,
		templateRepo: templateRepo,
		historyRepo:  historyRepo,
	}

	template, created, err := f.templates.EnsureDefaultTemplate(ctx)
	require.NoError(t, err)
	require.True(t, created)
	f.template = template
	return f
}

func (f *fixture) newTicket(t *testing.T, data map[string]any) *domain.Ticket {
	t.Helper()

	ticket, err := f.tickets.CreateTicket(context.Background(), &domain.Ticket{
		TemplateID: f.template.ID,
		Data:       data,
		Metadata:   domain.TicketMetadata{Dev: "ana"},
	})
	require.NoError(t, err)
	return ticket
}
