package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	templates  repository.TemplateRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service. HistoryRepo and
// Dispatcher are optional.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	TemplateRepo repository.TemplateRepository
	HistoryRepo  repository.TicketHistoryRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// BulkFailure records why one id in a bulk operation was not processed.
type BulkFailure struct {
	ID     string         `json:"id"`
	Ticket *domain.Ticket `json:"ticket,omitempty"`
	Error  string         `json:"error"`
}

// BulkResult splits a bulk operation into the tickets that succeeded and those that did not.
type BulkResult struct {
	Successful []domain.Ticket `json:"successful"`
	Failed     []BulkFailure   `json:"failed"`
}

// TicketStats counts tickets overall and per status.
type TicketStats struct {
	Total    int                         `json:"total"`
	ByStatus map[domain.TicketStatus]int `json:"by_status"`
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		templates:  deps.TemplateRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// ListTickets returns the tickets matching filter.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.tickets.FindAll(ctx, filter)
}

// CountTickets counts the tickets matching filter, ignoring pagination.
func (s *TicketService) CountTickets(ctx context.Context, filter repository.TicketFilter) (int, error) {
	return s.tickets.Count(ctx, filter)
}

// GetTicket fetches a ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.tickets.FindByID(ctx, id)
}

// GetTicketsByStatus lists every ticket in status.
func (s *TicketService) GetTicketsByStatus(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	if !status.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("Invalid ticket status: %s", status), nil)
	}
	return s.tickets.FindByStatus(ctx, status)
}

// GetTicketsByTemplate lists every ticket filled against templateID.
func (s *TicketService) GetTicketsByTemplate(ctx context.Context, templateID string) ([]domain.Ticket, error) {
	return s.tickets.FindByTemplateID(ctx, templateID)
}

// CreateTicket validates and stores a new ticket. Missing id, status and template
// version are filled in; the template must exist.
func (s *TicketService) CreateTicket(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if ticket.Status == "" {
		ticket.Status = domain.TicketStatusDraft
	}
	ticket.Tags = domain.NormalizeTags(ticket.Tags)
	ticket.Touch()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = ticket.UpdatedAt
	}
	if ticket.Status == domain.TicketStatusCompleted && ticket.CompletedAt == nil {
		completedAt := ticket.UpdatedAt
		ticket.CompletedAt = &completedAt
	}

	if strings.TrimSpace(ticket.TemplateID) != "" {
		template, err := s.templates.FindByID(ctx, ticket.TemplateID)
		if err != nil {
			return nil, err
		}
		if ticket.TemplateVersion == "" {
			ticket.TemplateVersion = template.Version
		}
		if ticket.Status == domain.TicketStatusCompleted {
			if err := requireFields(ticket, template); err != nil {
				return nil, err
			}
		}
	}

	if err := ticket.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.tickets.Exists(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewDuplicate(fmt.Sprintf("Ticket with id %s already exists", ticket.ID), map[string]any{"id": ticket.ID})
	}

	if err := s.tickets.Save(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.EventTicketCreated, ticket.ID, ticketPayload(ticket))
	return ticket, nil
}

// UpdateTicket replaces a ticket's editable content. A status different from the stored
// one is applied through the lifecycle rules.
func (s *TicketService) UpdateTicket(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	existing, err := s.tickets.FindByID(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}

	updated := *ticket
	updated.CreatedAt = existing.CreatedAt
	updated.Status = existing.Status
	updated.CompletedAt = existing.CompletedAt
	updated.Tags = domain.NormalizeTags(ticket.Tags)
	if updated.TemplateID == "" {
		updated.TemplateID = existing.TemplateID
	}
	if updated.TemplateVersion == "" && updated.TemplateID == existing.TemplateID {
		updated.TemplateVersion = existing.TemplateVersion
	}
	if updated.TemplateID != existing.TemplateID {
		template, err := s.templates.FindByID(ctx, updated.TemplateID)
		if err != nil {
			return nil, err
		}
		if updated.TemplateVersion == "" {
			updated.TemplateVersion = template.Version
		}
	}
	updated.Touch()

	statusChanged := ticket.Status != "" && ticket.Status != existing.Status
	if statusChanged {
		if err := s.applyTransition(ctx, &updated, ticket.Status); err != nil {
			return nil, err
		}
	}

	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.tickets.Save(ctx, &updated); err != nil {
		return nil, err
	}

	if statusChanged {
		s.recordStatusChange(ctx, updated.ID, existing.Status, updated.Status)
		s.publishEvent(ctx, events.EventTicketStatusChanged, updated.ID, events.TicketStatusChangedPayload{
			OldStatus: existing.Status,
			NewStatus: updated.Status,
		})
	}
	s.publishEvent(ctx, events.EventTicketUpdated, updated.ID, ticketPayload(&updated))
	return &updated, nil
}

// DeleteTicket removes a ticket together with its history.
func (s *TicketService) DeleteTicket(ctx context.Context, id string) error {
	_, err := s.deleteTicket(ctx, id)
	return err
}

func (s *TicketService) deleteTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return ticket, err
	}
	if s.history != nil {
		if err := s.history.DeleteByTicket(ctx, ticket.ID); err != nil {
			s.logger.Warn("delete ticket history", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}
	s.publishEvent(ctx, events.EventTicketDeleted, ticket.ID, ticketPayload(ticket))
	return ticket, nil
}

// UpdateTicketStatus moves a ticket to status, enforcing the same lifecycle as the
// dedicated transitions.
func (s *TicketService) UpdateTicketStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	ticket, err := s.transition(ctx, id, status)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// MarkAsCompleted completes a ticket once every required template field has a value.
func (s *TicketService) MarkAsCompleted(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.UpdateTicketStatus(ctx, id, domain.TicketStatusCompleted)
}

// MarkAsInProgress starts work on a draft ticket.
func (s *TicketService) MarkAsInProgress(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.UpdateTicketStatus(ctx, id, domain.TicketStatusInProgress)
}

// ArchiveTicket archives a completed ticket.
func (s *TicketService) ArchiveTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.UpdateTicketStatus(ctx, id, domain.TicketStatusArchived)
}

// BulkUpdateTicketStatus applies status to each id in turn. A failing id never stops
// the others and nothing is rolled back.
func (s *TicketService) BulkUpdateTicketStatus(ctx context.Context, ids []string, status domain.TicketStatus) (*BulkResult, error) {
	if !status.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("Invalid ticket status: %s", status), nil)
	}
	result := newBulkResult()
	for _, id := range ids {
		ticket, err := s.transition(ctx, id, status)
		result.add(id, ticket, err)
	}
	return result, nil
}

// BulkDeleteTickets deletes each id in turn, collecting per-id failures.
func (s *TicketService) BulkDeleteTickets(ctx context.Context, ids []string) *BulkResult {
	result := newBulkResult()
	for _, id := range ids {
		ticket, err := s.deleteTicket(ctx, id)
		result.add(id, ticket, err)
	}
	return result
}

// AddTag adds a normalized tag to a ticket.
func (s *TicketService) AddTag(ctx context.Context, id, tag string) (*domain.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := append([]string{}, ticket.Tags...)
	if err := ticket.AddTag(tag); err != nil {
		return nil, err
	}
	return s.saveTags(ctx, ticket, before)
}

// RemoveTag removes a tag from a ticket; removing an absent tag is a no-op.
func (s *TicketService) RemoveTag(ctx context.Context, id, tag string) (*domain.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := append([]string{}, ticket.Tags...)
	ticket.RemoveTag(tag)
	return s.saveTags(ctx, ticket, before)
}

func (s *TicketService) saveTags(ctx context.Context, ticket *domain.Ticket, before []string) (*domain.Ticket, error) {
	if len(before) == len(ticket.Tags) {
		return ticket, nil
	}
	if err := s.tickets.Save(ctx, ticket); err != nil {
		return nil, err
	}
	s.recordHistory(ctx, ticket.ID, domain.ChangeTypeTags,
		map[string]any{"tags": before},
		map[string]any{"tags": ticket.Tags},
	)
	s.publishEvent(ctx, events.EventTicketUpdated, ticket.ID, ticketPayload(ticket))
	return ticket, nil
}

// GetStats counts all tickets and the tickets in each status.
func (s *TicketService) GetStats(ctx context.Context) (*TicketStats, error) {
	total, err := s.tickets.Count(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, err
	}
	stats := &TicketStats{Total: total, ByStatus: make(map[domain.TicketStatus]int, len(domain.TicketStatuses))}
	for _, status := range domain.TicketStatuses {
		count, err := s.tickets.Count(ctx, repository.TicketFilter{Status: status})
		if err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
	}
	return stats, nil
}

// ListHistory returns a ticket's audit trail, oldest first.
func (s *TicketService) ListHistory(ctx context.Context, id string) ([]domain.TicketHistory, error) {
	if _, err := s.tickets.FindByID(ctx, id); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	return s.history.ListByTicket(ctx, id)
}

// transition loads a ticket and moves it to status. On failure the loaded, unchanged
// ticket is returned alongside the error when it exists.
func (s *TicketService) transition(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	loaded, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// transitions only touch scalar fields, a shallow copy keeps loaded intact
	ticket := *loaded
	if err := s.applyTransition(ctx, &ticket, status); err != nil {
		return loaded, err
	}
	if loaded.Status == ticket.Status {
		return loaded, nil
	}
	if err := s.tickets.Save(ctx, &ticket); err != nil {
		return loaded, err
	}

	s.recordStatusChange(ctx, ticket.ID, loaded.Status, ticket.Status)
	s.publishEvent(ctx, events.EventTicketStatusChanged, ticket.ID, events.TicketStatusChangedPayload{
		OldStatus: loaded.Status,
		NewStatus: ticket.Status,
	})
	return &ticket, nil
}

func (s *TicketService) applyTransition(ctx context.Context, ticket *domain.Ticket, status domain.TicketStatus) error {
	completing := status == domain.TicketStatusCompleted &&
		(ticket.Status == domain.TicketStatusDraft || ticket.Status == domain.TicketStatusInProgress)
	if completing {
		template, err := s.templates.FindByID(ctx, ticket.TemplateID)
		if err != nil {
			return err
		}
		if err := requireFields(ticket, template); err != nil {
			return err
		}
	}
	return ticket.TransitionTo(status)
}

func requireFields(ticket *domain.Ticket, template *domain.Template) error {
	check := ticket.ValidateRequiredFields(template)
	if check.IsValid {
		return nil
	}
	labels := make([]string, 0, len(check.MissingFields))
	ids := make([]string, 0, len(check.MissingFields))
	for _, field := range check.MissingFields {
		labels = append(labels, field.Label)
		ids = append(ids, field.ID)
	}
	return apperrors.NewValidationError(
		fmt.Sprintf("Cannot complete ticket: missing required fields: %s", strings.Join(labels, ", ")),
		map[string]any{"missing_fields": ids},
	)
}

func (s *TicketService) recordStatusChange(ctx context.Context, ticketID string, from, to domain.TicketStatus) {
	s.recordHistory(ctx, ticketID, domain.ChangeTypeStatus,
		map[string]any{"status": string(from)},
		map[string]any{"status": string(to)},
	)
}

func (s *TicketService) recordHistory(ctx context.Context, ticketID string, changeType domain.TicketChangeType, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	entry := domain.NewTicketHistory(ticketID, auth.OwnerFromContext(ctx), changeType, oldValue, newValue)
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("record ticket history", zap.String("ticket_id", ticketID), zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, eventType events.EventType, id string, payload any) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, events.NewEvent(eventType, id, payload)); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(eventType)), zap.String("entity_id", id), zap.Error(err))
	}
}

func ticketPayload(ticket *domain.Ticket) events.TicketPayload {
	return events.TicketPayload{
		TemplateID: ticket.TemplateID,
		Status:     ticket.Status,
		Title:      ticket.Title(),
		Tags:       ticket.Tags,
	}
}

func newBulkResult() *BulkResult {
	return &BulkResult{Successful: []domain.Ticket{}, Failed: []BulkFailure{}}
}

func (r *BulkResult) add(id string, ticket *domain.Ticket, err error) {
	if err != nil {
		r.Failed = append(r.Failed, BulkFailure{ID: id, Ticket: ticket, Error: err.Error()})
		return
	}
	r.Successful = append(r.Successful, *ticket)
}
