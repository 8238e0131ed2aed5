package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	FindAll(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	FindByID(ctx context.Context, id string) (*domain.Ticket, error)
	Save(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, filter TicketFilter) (int, error)
	Exists(ctx context.Context, id string) (bool, error)
	FindByStatus(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error)
	FindByTemplateID(ctx context.Context, templateID string) ([]domain.Ticket, error)
}

var ticketSortColumns = map[string]string{
	"created_at":   "created_at",
	"createdAt":    "created_at",
	"updated_at":   "updated_at",
	"updatedAt":    "updated_at",
	"completed_at": "completed_at",
	"completedAt":  "completed_at",
	"status":       "status",
	"template_id":  "template_id",
	"templateId":   "template_id",
}

const ticketColumns = `id, template_id, template_version, status, data, metadata, tags,
               created_at, updated_at, completed_at`

type ticketRepository struct {
	db *sql.DB
}

// NewTicketRepository instantiates the SQL ticket repository.
func NewTicketRepository(db *sql.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) FindAll(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	args := &queryArgs{}
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s`, ticketColumns, ticketWhere(filter, args)) +
		orderAndPage(filter.BaseFilter, ticketSortColumns, "created_at")

	rows, err := r.db.QueryContext(ctx, query, args.values...)
	if err != nil {
		return nil, errors.Wrap(err, "query tickets")
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) FindByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	ticket, err := scanTicket(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("Ticket", map[string]any{"id": id})
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get ticket %s", id)
	}
	return ticket, nil
}

func (r *ticketRepository) FindByStatus(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	return r.FindAll(ctx, TicketFilter{Status: status})
}

func (r *ticketRepository) FindByTemplateID(ctx context.Context, templateID string) ([]domain.Ticket, error) {
	return r.FindAll(ctx, TicketFilter{TemplateID: templateID})
}

func (r *ticketRepository) Save(ctx context.Context, ticket *domain.Ticket) error {
	exists, err := r.Exists(ctx, ticket.ID)
	if err != nil {
		return err
	}

	data, err := marshalJSON(ticket.Data)
	if err != nil {
		return err
	}
	metadata, err := marshalJSON(ticket.Metadata)
	if err != nil {
		return err
	}
	tags := ticket.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := marshalJSON(tags)
	if err != nil {
		return err
	}
	searchText := ticketSearchText(ticket)

	if exists {
		const query = `
        UPDATE tickets SET template_id=$1, template_version=$2, status=$3, data=$4, metadata=$5,
            tags=$6, search_text=$7, updated_at=$8, completed_at=$9
        WHERE id=$10`
		_, err = r.db.ExecContext(ctx, query,
			ticket.TemplateID,
			ticket.TemplateVersion,
			string(ticket.Status),
			data,
			metadata,
			tagsJSON,
			searchText,
			toMillis(ticket.UpdatedAt),
			nullMillis(ticket.CompletedAt),
			ticket.ID,
		)
		return errors.Wrapf(err, "update ticket %s", ticket.ID)
	}

	const query = `
        INSERT INTO tickets (id, template_id, template_version, status, data, metadata, tags,
            search_text, created_at, updated_at, completed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err = r.db.ExecContext(ctx, query,
		ticket.ID,
		ticket.TemplateID,
		ticket.TemplateVersion,
		string(ticket.Status),
		data,
		metadata,
		tagsJSON,
		searchText,
		toMillis(ticket.CreatedAt),
		toMillis(ticket.UpdatedAt),
		nullMillis(ticket.CompletedAt),
	)
	return errors.Wrapf(err, "insert ticket %s", ticket.ID)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return errors.Wrapf(err, "delete ticket %s", id)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NewNotFound("Ticket", map[string]any{"id": id})
	}
	return nil
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int, error) {
	args := &queryArgs{}
	query := `SELECT COUNT(*) FROM tickets WHERE ` + ticketWhere(filter, args)

	var count int
	if err := r.db.QueryRowContext(ctx, query, args.values...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count tickets")
	}
	return count, nil
}

func (r *ticketRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets WHERE id=$1`, id).Scan(&count); err != nil {
		return false, errors.Wrapf(err, "check ticket %s", id)
	}
	return count > 0, nil
}

func ticketWhere(filter TicketFilter, args *queryArgs) string {
	clauses := []string{"1=1"}

	if filter.Status != "" {
		clauses = append(clauses, "status="+args.add(string(filter.Status)))
	}
	if filter.TemplateID != "" {
		clauses = append(clauses, "template_id="+args.add(filter.TemplateID))
	}
	if len(filter.Tags) > 0 {
		tagClauses := make([]string, 0, len(filter.Tags))
		for _, tag := range filter.Tags {
			tagClauses = append(tagClauses, `tags LIKE `+args.add(tagPattern(tag))+` ESCAPE '\'`)
		}
		clauses = append(clauses, "("+strings.Join(tagClauses, " OR ")+")")
	}
	if filter.DateFrom != nil {
		clauses = append(clauses, "created_at >= "+args.add(toMillis(*filter.DateFrom)))
	}
	if filter.DateTo != nil {
		clauses = append(clauses, "created_at <= "+args.add(toMillis(*filter.DateTo)))
	}
	if filter.HasSearch() {
		clauses = append(clauses, `search_text LIKE `+args.add(likeTerm(filter.Search))+` ESCAPE '\'`)
	}
	return strings.Join(clauses, " AND ")
}

// tagPattern matches one exact tag inside the JSON-encoded tags column.
func tagPattern(tag string) string {
	quoted, _ := json.Marshal(domain.NormalizeTag(tag))
	return "%" + likeEscaper.Replace(string(quoted)) + "%"
}

// ticketSearchText flattens the values of data, metadata and tags into the lower-cased
// text that search matches against. Data keys are left out.
func ticketSearchText(ticket *domain.Ticket) string {
	var parts []string
	collectSearchValues(ticket.Data, &parts)
	for _, v := range []string{ticket.Metadata.Dev, ticket.Metadata.Estimate, ticket.Metadata.ActualTime, ticket.Metadata.Priority} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	parts = append(parts, ticket.Tags...)
	return strings.ToLower(strings.Join(parts, "\n"))
}

func collectSearchValues(v any, parts *[]string) {
	switch value := v.(type) {
	case nil:
	case string:
		if strings.TrimSpace(value) != "" {
			*parts = append(*parts, value)
		}
	case map[string]any:
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			collectSearchValues(value[key], parts)
		}
	case []any:
		for _, item := range value {
			collectSearchValues(item, parts)
		}
	case []string:
		*parts = append(*parts, value...)
	default:
		*parts = append(*parts, fmt.Sprint(value))
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var (
		ticket               domain.Ticket
		status               string
		data, metadata, tags string
		createdAt, updatedAt int64
		completedAt          sql.NullInt64
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.TemplateID,
		&ticket.TemplateVersion,
		&status,
		&data,
		&metadata,
		&tags,
		&createdAt,
		&updatedAt,
		&completedAt,
	); err != nil {
		return nil, err
	}

	ticket.Status = domain.TicketStatus(status)
	ticket.CreatedAt = fromMillis(createdAt)
	ticket.UpdatedAt = fromMillis(updatedAt)
	ticket.CompletedAt = fromNullMillis(completedAt)
	if err := unmarshalJSON(data, &ticket.Data); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(metadata, &ticket.Metadata); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(tags, &ticket.Tags); err != nil {
		return nil, err
	}
	if ticket.Tags == nil {
		ticket.Tags = []string{}
	}
	return &ticket, nil
}

func scanTickets(rows *sql.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan ticket")
		}
		result = append(result, *ticket)
	}
	return result, errors.Wrap(rows.Err(), "iterate tickets")
}
