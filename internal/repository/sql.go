package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// queryArgs collects positional arguments and hands out matching $N placeholders.
type queryArgs struct {
	values []any
}

func (a *queryArgs) add(v any) string {
	a.values = append(a.values, v)
	return fmt.Sprintf("$%d", len(a.values))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeTerm is a lower-cased substring pattern for LIKE ... ESCAPE '\'.
func likeTerm(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

// orderAndPage renders ORDER BY plus LIMIT/OFFSET. Unknown sort keys fall back to
// fallback; id breaks ties so pages are stable.
func orderAndPage(f BaseFilter, columns map[string]string, fallback string) string {
	column, ok := columns[f.SortBy]
	if !ok {
		column = fallback
	}
	clause := fmt.Sprintf(" ORDER BY %s %s, id ASC", column, f.sortDirection())
	if f.HasPagination() {
		clause += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit(), f.Offset())
	}
	return clause
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func marshalJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "encode json column")
	}
	return string(raw), nil
}

func unmarshalJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return errors.Wrap(json.Unmarshal([]byte(raw), v), "decode json column")
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}
	return n, nil
}
