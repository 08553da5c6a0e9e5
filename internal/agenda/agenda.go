// Package agenda filters, orders, and groups appointments for list and
// calendar views.
package agenda

import (
	"sort"
	"strings"
	"time"
)

// Fields are the appointment attributes agenda views work from.
type Fields struct {
	Date       string
	StartTime  string
	Title      string
	Location   string
	Notes      string
	CategoryID string
	StartUTC   int64
	CreatedAt  time.Time
}

// Item is anything that can be placed on the agenda.
type Item interface {
	AgendaFields() Fields
}

// SortMode orders agenda entries.
type SortMode string

const (
	SortDateAsc  SortMode = "date-asc"
	SortDateDesc SortMode = "date-desc"
	SortCategory SortMode = "category"
	SortCreated  SortMode = "created"
)

// ParseSortMode maps unknown values to SortDateAsc.
func ParseSortMode(value string) SortMode {
	switch SortMode(strings.TrimSpace(value)) {
	case SortDateDesc:
		return SortDateDesc
	case SortCategory:
		return SortCategory
	case SortCreated:
		return SortCreated
	default:
		return SortDateAsc
	}
}

// AllCategories disables the category filter.
const AllCategories = "all"

// Filters narrows the agenda.
type Filters struct {
	Search     string
	CategoryID string
	DateFrom   string
	DateTo     string
	Sort       SortMode
}

// DefaultFilters matches the agenda's initial state.
func DefaultFilters() Filters {
	return Filters{CategoryID: AllCategories, Sort: SortDateAsc}
}

// Active reports whether any filter differs from DefaultFilters.
func (f Filters) Active() bool {
	def := DefaultFilters()
	return strings.TrimSpace(f.Search) != def.Search ||
		f.CategoryID != def.CategoryID ||
		f.DateFrom != def.DateFrom ||
		f.DateTo != def.DateTo ||
		f.Sort != def.Sort
}

// ApplyFilters keeps items matching search text, category, and date bounds.
func ApplyFilters[T Item](items []T, f Filters) []T {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]T, 0, len(items))
	for _, item := range items {
		fields := item.AgendaFields()
		if search != "" && !strings.Contains(haystack(fields), search) {
			continue
		}
		if f.CategoryID != "" && f.CategoryID != AllCategories && fields.CategoryID != f.CategoryID {
			continue
		}
		if f.DateFrom != "" && fields.Date < f.DateFrom {
			continue
		}
		if f.DateTo != "" && fields.Date > f.DateTo {
			continue
		}
		out = append(out, item)
	}
	return out
}

func haystack(fields Fields) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{fields.Title, fields.Location, fields.Notes} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Sort returns a sorted copy. categoryNames maps category IDs to display
// names for SortCategory.
func Sort[T Item](items []T, mode SortMode, categoryNames map[string]string) []T {
	out := make([]T, len(items))
	copy(out, items)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].AgendaFields(), out[j].AgendaFields()
		primary := compareDateTime(a, b)
		switch mode {
		case SortDateDesc:
			return primary > 0
		case SortCategory:
			if primary != 0 {
				return primary < 0
			}
			return strings.ToLower(categoryNames[a.CategoryID]) < strings.ToLower(categoryNames[b.CategoryID])
		case SortCreated:
			if primary != 0 {
				return primary < 0
			}
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return primary < 0
		}
	})
	return out
}

func compareDateTime(a, b Fields) int {
	return strings.Compare(a.Date+"T"+a.StartTime, b.Date+"T"+b.StartTime)
}

// Group is a run of consecutive items sharing a date.
type Group[T Item] struct {
	Date  string
	Items []T
}

// GroupByDate splits an ordered list into runs of equal dates.
func GroupByDate[T Item](items []T) []Group[T] {
	var groups []Group[T]
	for _, item := range items {
		date := item.AgendaFields().Date
		if len(groups) == 0 || groups[len(groups)-1].Date != date {
			groups = append(groups, Group[T]{Date: date})
		}
		last := &groups[len(groups)-1]
		last.Items = append(last.Items, item)
	}
	return groups
}

// VisibleFrom hides items dated before today unless showPast is set.
func VisibleFrom[T Item](items []T, today string, showPast bool) []T {
	if showPast || today == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item.AgendaFields().Date >= today {
			out = append(out, item)
		}
	}
	return out
}
