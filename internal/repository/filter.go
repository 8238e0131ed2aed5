package repository

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 200

	SortAsc  = "asc"
	SortDesc = "desc"

	dateLayout = "2006-01-02"
)

// BaseFilter carries search, pagination and sorting shared by every listing.
//
// The zero value applies no pagination; NewBaseFilter returns the listing defaults.
type BaseFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// NewBaseFilter returns page 1 of 20 sorted descending.
func NewBaseFilter() BaseFilter {
	return BaseFilter{Page: defaultPage, PageSize: defaultPageSize, SortOrder: SortDesc}
}

// Offset is the number of rows skipped before the current page.
func (f BaseFilter) Offset() int {
	if f.Page <= 1 || f.PageSize <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Limit is the page size.
func (f BaseFilter) Limit() int {
	return f.PageSize
}

func (f BaseFilter) HasPagination() bool { return f.PageSize > 0 }
func (f BaseFilter) HasSorting() bool    { return strings.TrimSpace(f.SortBy) != "" }
func (f BaseFilter) HasSearch() bool     { return strings.TrimSpace(f.Search) != "" }

func (f BaseFilter) sortDirection() string {
	if strings.EqualFold(f.SortOrder, SortAsc) {
		return "ASC"
	}
	return "DESC"
}

func (f BaseFilter) encode(q url.Values) {
	if f.HasSearch() {
		q.Set("search", f.Search)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	q.Set("page_size", strconv.Itoa(f.PageSize))
	if f.HasSorting() {
		q.Set("sort_by", f.SortBy)
	}
	if f.SortOrder != "" {
		q.Set("sort_order", f.SortOrder)
	}
}

func parseBaseFilter(q url.Values) (BaseFilter, error) {
	f := NewBaseFilter()
	f.Search = strings.TrimSpace(q.Get("search"))
	f.SortBy = strings.TrimSpace(q.Get("sort_by"))

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return f, invalidParam("page", v)
		}
		f.Page = page
	}
	if v := q.Get("page_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 0 || size > maxPageSize {
			return f, invalidParam("page_size", v)
		}
		f.PageSize = size
	}
	if v := strings.ToLower(q.Get("sort_order")); v != "" {
		if v != SortAsc && v != SortDesc {
			return f, invalidParam("sort_order", v)
		}
		f.SortOrder = v
	}
	return f, nil
}

// TicketFilter narrows ticket listings. Tags are OR-matched; the date range is inclusive
// on creation time.
type TicketFilter struct {
	BaseFilter
	Status     domain.TicketStatus
	TemplateID string
	Tags       []string
	DateFrom   *time.Time
	DateTo     *time.Time
}

// NewTicketFilter returns a ticket filter with the listing defaults.
func NewTicketFilter() TicketFilter {
	return TicketFilter{BaseFilter: NewBaseFilter()}
}

// HasAnyFilter reports whether any narrowing predicate is active.
func (f TicketFilter) HasAnyFilter() bool {
	return f.HasSearch() ||
		f.Status != "" ||
		f.TemplateID != "" ||
		len(f.Tags) > 0 ||
		f.DateFrom != nil ||
		f.DateTo != nil
}

// Query encodes the filter as URL query parameters.
func (f TicketFilter) Query() url.Values {
	q := url.Values{}
	f.BaseFilter.encode(q)
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.TemplateID != "" {
		q.Set("template_id", f.TemplateID)
	}
	if len(f.Tags) > 0 {
		q.Set("tags", strings.Join(f.Tags, ","))
	}
	if f.DateFrom != nil {
		q.Set("date_from", f.DateFrom.UTC().Format(time.RFC3339Nano))
	}
	if f.DateTo != nil {
		q.Set("date_to", f.DateTo.UTC().Format(time.RFC3339Nano))
	}
	return q
}

// ParseTicketFilter decodes a ticket filter from URL query parameters.
func ParseTicketFilter(q url.Values) (TicketFilter, error) {
	base, err := parseBaseFilter(q)
	if err != nil {
		return TicketFilter{}, err
	}
	f := TicketFilter{BaseFilter: base, TemplateID: strings.TrimSpace(q.Get("template_id"))}

	if v := q.Get("status"); v != "" {
		status := domain.TicketStatus(strings.ToLower(v))
		if !status.IsValid() {
			return f, invalidParam("status", v)
		}
		f.Status = status
	}
	if v := q.Get("tags"); v != "" {
		f.Tags = domain.NormalizeTags(strings.Split(v, ","))
	}
	if v := q.Get("date_from"); v != "" {
		from, _, err := parseDate(v)
		if err != nil {
			return f, invalidParam("date_from", v)
		}
		f.DateFrom = &from
	}
	if v := q.Get("date_to"); v != "" {
		to, dateOnly, err := parseDate(v)
		if err != nil {
			return f, invalidParam("date_to", v)
		}
		if dateOnly {
			to = to.Add(24*time.Hour - time.Millisecond)
		}
		f.DateTo = &to
	}
	return f, nil
}

// TemplateFilter narrows template listings.
type TemplateFilter struct {
	BaseFilter
	Name      string
	Version   string
	IsDefault *bool
}

// NewTemplateFilter returns a template filter with the listing defaults.
func NewTemplateFilter() TemplateFilter {
	return TemplateFilter{BaseFilter: NewBaseFilter()}
}

// HasAnyFilter reports whether any narrowing predicate is active.
func (f TemplateFilter) HasAnyFilter() bool {
	return f.HasSearch() || f.Name != "" || f.Version != "" || f.IsDefault != nil
}

// Query encodes the filter as URL query parameters.
func (f TemplateFilter) Query() url.Values {
	q := url.Values{}
	f.BaseFilter.encode(q)
	if f.Name != "" {
		q.Set("name", f.Name)
	}
	if f.Version != "" {
		q.Set("version", f.Version)
	}
	if f.IsDefault != nil {
		q.Set("is_default", strconv.FormatBool(*f.IsDefault))
	}
	return q
}

// ParseTemplateFilter decodes a template filter from URL query parameters.
func ParseTemplateFilter(q url.Values) (TemplateFilter, error) {
	base, err := parseBaseFilter(q)
	if err != nil {
		return TemplateFilter{}, err
	}
	f := TemplateFilter{
		BaseFilter: base,
		Name:       strings.TrimSpace(q.Get("name")),
		Version:    strings.TrimSpace(q.Get("version")),
	}
	if v := q.Get("is_default"); v != "" {
		isDefault, err := strconv.ParseBool(v)
		if err != nil {
			return f, invalidParam("is_default", v)
		}
		f.IsDefault = &isDefault
	}
	return f, nil
}

// parseDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates, reporting which one it saw.
func parseDate(v string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.UTC(), false, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, false, err
	}
	return t.UTC(), true, nil
}

func invalidParam(name, value string) error {
	return apperrors.NewValidationError(fmt.Sprintf("invalid %s %q", name, value), map[string]any{"param": name})
}
