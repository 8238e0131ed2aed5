package domain

import (
	"sort"
	"strings"
)

// Key lists drive which data entries are shown as a ticket's title, description and
// blocker across arbitrary user-defined templates.
var (
	titleExactKeys     = []string{"title", "ticket_title", "titulo", "nome"}
	titlePartialKeys   = []string{"title", "titulo", "nome"}
	titleExcludedKeys  = []string{"description", "descricao", "desc"}
	descExactKeys      = []string{"description", "ticket_description", "descricao", "desc"}
	descPartialKeys    = []string{"description", "descricao", "desc"}
	blockerExactKeys   = []string{"blocker", "blockers", "impedimento", "impedimentos", "bloqueio"}
	blockerPartialKeys = []string{"blocker", "impediment", "bloque"}
)

const titleIDPrefixLen = 8

// Title returns the ticket's display title, falling back to "Ticket #<id prefix>".
func (t *Ticket) Title() string {
	if v, ok := t.lookupFirst(titleExactKeys, titlePartialKeys, titleExcludedKeys); ok {
		return v
	}
	id := t.ID
	if len(id) > titleIDPrefixLen {
		id = id[:titleIDPrefixLen]
	}
	return "Ticket #" + id
}

// Description returns the first description-like value, or "".
func (t *Ticket) Description() string {
	v, _ := t.lookupFirst(descExactKeys, descPartialKeys, nil)
	return v
}

// Blocker joins every blocker-like value with a blank line, or returns "".
func (t *Ticket) Blocker() string {
	var found []string
	used := make(map[string]struct{})
	for _, key := range blockerExactKeys {
		if v, ok := textValue(t.Data[key]); ok {
			found = append(found, v)
			used[key] = struct{}{}
		}
	}
	for _, key := range sortedKeys(t.Data) {
		if _, done := used[key]; done {
			continue
		}
		if !containsAny(strings.ToLower(key), blockerPartialKeys) {
			continue
		}
		if v, ok := textValue(t.Data[key]); ok {
			found = append(found, v)
		}
	}
	return strings.Join(found, "\n\n")
}

func (t *Ticket) lookupFirst(exact, partial, excluded []string) (string, bool) {
	for _, key := range exact {
		if v, ok := textValue(t.Data[key]); ok {
			return v, true
		}
	}
	for _, key := range sortedKeys(t.Data) {
		lower := strings.ToLower(key)
		if len(excluded) > 0 && containsAny(lower, excluded) {
			continue
		}
		if !containsAny(lower, partial) {
			continue
		}
		if v, ok := textValue(t.Data[key]); ok {
			return v, true
		}
	}
	return "", false
}

func textValue(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func sortedKeys(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
