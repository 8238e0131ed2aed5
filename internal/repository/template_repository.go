package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

// TemplateRepository encapsulates template persistence.
type TemplateRepository interface {
	FindAll(ctx context.Context, filter TemplateFilter) ([]domain.Template, error)
	FindByID(ctx context.Context, id string) (*domain.Template, error)
	Save(ctx context.Context, template *domain.Template) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, filter TemplateFilter) (int, error)
	Exists(ctx context.Context, id string) (bool, error)
	FindDefault(ctx context.Context) (*domain.Template, error)
	SetAsDefault(ctx context.Context, id string) error
}

var templateSortColumns = map[string]string{
	"name":       "name",
	"version":    "version",
	"created_at": "created_at",
	"createdAt":  "created_at",
	"updated_at": "updated_at",
	"updatedAt":  "updated_at",
	"is_default": "is_default",
	"isDefault":  "is_default",
}

const templateColumns = `id, name, description, version, is_default, sections, author, created_at, updated_at`

type templateRepository struct {
	db *sql.DB
}

// NewTemplateRepository instantiates the SQL template repository.
func NewTemplateRepository(db *sql.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) FindAll(ctx context.Context, filter TemplateFilter) ([]domain.Template, error) {
	args := &queryArgs{}
	query := fmt.Sprintf(`SELECT %s FROM templates WHERE %s`, templateColumns, templateWhere(filter, args)) +
		orderAndPage(filter.BaseFilter, templateSortColumns, "created_at")

	rows, err := r.db.QueryContext(ctx, query, args.values...)
	if err != nil {
		return nil, errors.Wrap(err, "query templates")
	}
	defer rows.Close()

	result := []domain.Template{}
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan template")
		}
		result = append(result, *tpl)
	}
	return result, errors.Wrap(rows.Err(), "iterate templates")
}

func (r *templateRepository) FindByID(ctx context.Context, id string) (*domain.Template, error) {
	query := fmt.Sprintf(`SELECT %s FROM templates WHERE id=$1`, templateColumns)
	tpl, err := scanTemplate(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("Template", map[string]any{"id": id})
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get template %s", id)
	}
	return tpl, nil
}

func (r *templateRepository) FindDefault(ctx context.Context) (*domain.Template, error) {
	query := fmt.Sprintf(`SELECT %s FROM templates WHERE is_default=$1 ORDER BY updated_at DESC LIMIT 1`, templateColumns)
	tpl, err := scanTemplate(r.db.QueryRowContext(ctx, query, true))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("Default template", nil)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get default template")
	}
	return tpl, nil
}

func (r *templateRepository) Save(ctx context.Context, template *domain.Template) error {
	exists, err := r.Exists(ctx, template.ID)
	if err != nil {
		return err
	}

	sections := template.Sections
	if sections == nil {
		sections = []domain.Section{}
	}
	sectionsJSON, err := marshalJSON(sections)
	if err != nil {
		return err
	}

	if exists {
		const query = `
        UPDATE templates SET name=$1, description=$2, version=$3, is_default=$4, sections=$5,
            author=$6, updated_at=$7
        WHERE id=$8`
		_, err = r.db.ExecContext(ctx, query,
			template.Name,
			template.Description,
			template.Version,
			template.IsDefault,
			sectionsJSON,
			template.Author,
			toMillis(template.UpdatedAt),
			template.ID,
		)
		return errors.Wrapf(err, "update template %s", template.ID)
	}

	const query = `
        INSERT INTO templates (id, name, description, version, is_default, sections, author, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err = r.db.ExecContext(ctx, query,
		template.ID,
		template.Name,
		template.Description,
		template.Version,
		template.IsDefault,
		sectionsJSON,
		template.Author,
		toMillis(template.CreatedAt),
		toMillis(template.UpdatedAt),
	)
	return errors.Wrapf(err, "insert template %s", template.ID)
}

func (r *templateRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id=$1`, id)
	if err != nil {
		return errors.Wrapf(err, "delete template %s", id)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NewNotFound("Template", map[string]any{"id": id})
	}
	return nil
}

func (r *templateRepository) Count(ctx context.Context, filter TemplateFilter) (int, error) {
	args := &queryArgs{}
	query := `SELECT COUNT(*) FROM templates WHERE ` + templateWhere(filter, args)

	var count int
	if err := r.db.QueryRowContext(ctx, query, args.values...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count templates")
	}
	return count, nil
}

func (r *templateRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM templates WHERE id=$1`, id).Scan(&count); err != nil {
		return false, errors.Wrapf(err, "check template %s", id)
	}
	return count > 0, nil
}

// SetAsDefault clears every other default flag and marks id as the default in one transaction.
func (r *templateRepository) SetAsDefault(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin set default")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM templates WHERE id=$1`, id).Scan(&count); err != nil {
		return errors.Wrapf(err, "check template %s", id)
	}
	if count == 0 {
		return apperrors.NewNotFound("Template", map[string]any{"id": id})
	}

	if _, err := tx.ExecContext(ctx, `UPDATE templates SET is_default=$1 WHERE id<>$2 AND is_default=$3`, false, id, true); err != nil {
		return errors.Wrap(err, "clear default templates")
	}
	if _, err := tx.ExecContext(ctx, `UPDATE templates SET is_default=$1, updated_at=$2 WHERE id=$3`,
		true, time.Now().UnixMilli(), id); err != nil {
		return errors.Wrapf(err, "set default template %s", id)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit set default")
	}
	committed = true
	return nil
}

func templateWhere(filter TemplateFilter, args *queryArgs) string {
	clauses := []string{"1=1"}

	if filter.Name != "" {
		clauses = append(clauses, "name="+args.add(filter.Name))
	}
	if filter.Version != "" {
		clauses = append(clauses, "version="+args.add(filter.Version))
	}
	if filter.IsDefault != nil {
		clauses = append(clauses, "is_default="+args.add(*filter.IsDefault))
	}
	if filter.HasSearch() {
		term := likeTerm(filter.Search)
		clauses = append(clauses, fmt.Sprintf(`(LOWER(name) LIKE %s ESCAPE '\' OR LOWER(description) LIKE %s ESCAPE '\')`,
			args.add(term), args.add(term)))
	}
	return strings.Join(clauses, " AND ")
}

func scanTemplate(row rowScanner) (*domain.Template, error) {
	var (
		tpl                  domain.Template
		sections             string
		createdAt, updatedAt int64
	)
	if err := row.Scan(
		&tpl.ID,
		&tpl.Name,
		&tpl.Description,
		&tpl.Version,
		&tpl.IsDefault,
		&sections,
		&tpl.Author,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	tpl.CreatedAt = fromMillis(createdAt)
	tpl.UpdatedAt = fromMillis(updatedAt)
	if err := unmarshalJSON(sections, &tpl.Sections); err != nil {
		return nil, err
	}
	return &tpl, nil
}
