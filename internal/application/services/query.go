package services

import (
	"sort"
	"strings"
	"time"

	"github.com/taskmaster/tasknote/internal/domain/entities"
)

// SortKey selects the attribute used to order search results
type SortKey string

const (
	SortNone       SortKey = ""
	SortTitle      SortKey = "title"
	SortDatetime   SortKey = "datetime"
	SortPriority   SortKey = "priority"
	SortComplexity SortKey = "complexity"
)

// Query filters and orders a flat list. Zero values disable each criterion.
type Query struct {
	Text          string
	Type          entities.ItemType
	ParentID      string
	MinPriority   *int
	MaxPriority   *int
	MinComplexity *int
	MaxComplexity *int
	From          *time.Time
	To            *time.Time
	SortBy        SortKey
	Descending    bool
}

// Apply returns the matching items. Sorting is stable and items missing the
// sort attribute go last; without a sort key the flat order is kept.
func (q Query) Apply(items []entities.FlatItem, loc *time.Location) []entities.FlatItem {
	text := strings.ToLower(strings.TrimSpace(q.Text))

	out := make([]entities.FlatItem, 0, len(items))
	for _, item := range items {
		if q.Type != "" && item.Type != q.Type {
			continue
		}
		if q.ParentID != "" && (item.ParentID == nil || *item.ParentID != q.ParentID) {
			continue
		}
		if text != "" && !matchesText(item, text) {
			continue
		}
		if !inRange(item.Priority, q.MinPriority, q.MaxPriority) {
			continue
		}
		if !inRange(item.Complexity, q.MinComplexity, q.MaxComplexity) {
			continue
		}
		if (q.From != nil || q.To != nil) && !inWindow(item, q.From, q.To, loc) {
			continue
		}
		out = append(out, item)
	}

	if q.SortBy == SortNone {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		c, ok := compare(out[i], out[j], q.SortBy, loc)
		if !ok {
			return c < 0
		}
		if q.Descending {
			return c > 0
		}
		return c < 0
	})

	return out
}

func matchesText(item entities.FlatItem, text string) bool {
	if strings.Contains(strings.ToLower(item.Title), text) {
		return true
	}
	return item.Description != nil && strings.Contains(strings.ToLower(*item.Description), text)
}

func inRange(v, lo, hi *int) bool {
	if lo == nil && hi == nil {
		return true
	}
	if v == nil {
		return false
	}
	if lo != nil && *v < *lo {
		return false
	}
	if hi != nil && *v > *hi {
		return false
	}
	return true
}

func inWindow(item entities.FlatItem, from, to *time.Time, loc *time.Location) bool {
	if item.Datetime == nil {
		return false
	}
	at, ok := ParseDatetime(*item.Datetime, loc)
	if !ok {
		return false
	}
	if from != nil && at.Before(*from) {
		return false
	}
	if to != nil && at.After(*to) {
		return false
	}
	return true
}

// compare orders a before b by key. ok is false when at least one side lacks
// the attribute; the returned c then puts the missing side last regardless of direction.
func compare(a, b entities.FlatItem, key SortKey, loc *time.Location) (c int, ok bool) {
	switch key {
	case SortTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)), true
	case SortPriority:
		return compareInts(a.Priority, b.Priority)
	case SortComplexity:
		return compareInts(a.Complexity, b.Complexity)
	case SortDatetime:
		var ta, tb *time.Time
		if a.Datetime != nil {
			if t, parsed := ParseDatetime(*a.Datetime, loc); parsed {
				ta = &t
			}
		}
		if b.Datetime != nil {
			if t, parsed := ParseDatetime(*b.Datetime, loc); parsed {
				tb = &t
			}
		}
		switch {
		case ta == nil && tb == nil:
			return 0, false
		case ta == nil:
			return 1, false
		case tb == nil:
			return -1, false
		}
		return ta.Compare(*tb), true
	}
	return 0, true
}

func compareInts(a, b *int) (int, bool) {
	switch {
	case a == nil && b == nil:
		return 0, false
	case a == nil:
		return 1, false
	case b == nil:
		return -1, false
	case *a < *b:
		return -1, true
	case *a > *b:
		return 1, true
	}
	return 0, true
}
