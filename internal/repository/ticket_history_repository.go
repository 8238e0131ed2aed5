package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// TicketHistoryRepository stores audit entries.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error)
	DeleteByTicket(ctx context.Context, ticketID string) error
}

type ticketHistoryRepository struct {
	db *sql.DB
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(db *sql.DB) TicketHistoryRepository {
	return &ticketHistoryRepository{db: db}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	oldValue, err := marshalJSON(history.OldValue)
	if err != nil {
		return err
	}
	newValue, err := marshalJSON(history.NewValue)
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO ticket_history (id, ticket_id, change_type, old_value, new_value, changed_by, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err = r.db.ExecContext(ctx, query,
		history.ID,
		history.TicketID,
		string(history.ChangeType),
		oldValue,
		newValue,
		history.ChangedBy,
		toMillis(history.CreatedAt),
	)
	return errors.Wrapf(err, "insert history for ticket %s", history.TicketID)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	const query = `
        SELECT id, ticket_id, change_type, old_value, new_value, changed_by, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, ticketID)
	if err != nil {
		return nil, errors.Wrapf(err, "query history for ticket %s", ticketID)
	}
	defer rows.Close()

	result := []domain.TicketHistory{}
	for rows.Next() {
		var (
			history            domain.TicketHistory
			changeType         string
			oldValue, newValue string
			createdAt          int64
		)
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&changeType,
			&oldValue,
			&newValue,
			&history.ChangedBy,
			&createdAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan history")
		}
		history.ChangeType = domain.TicketChangeType(changeType)
		history.CreatedAt = fromMillis(createdAt)
		if err := unmarshalJSON(oldValue, &history.OldValue); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(newValue, &history.NewValue); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, errors.Wrap(rows.Err(), "iterate history")
}

func (r *ticketHistoryRepository) DeleteByTicket(ctx context.Context, ticketID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ticket_history WHERE ticket_id=$1`, ticketID)
	return errors.Wrapf(err, "delete history for ticket %s", ticketID)
}
