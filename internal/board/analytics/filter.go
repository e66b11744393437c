// Package analytics derives views from a board snapshot: filtering,
// sorting, the work item hierarchy and cost and effort roll-ups.
package analytics

import (
	"sort"
	"strings"

	"github.com/bitfantasy/agileboard/internal/board/entity"
)

// Filter selects work items. Empty fields match everything.
type Filter struct {
	Types    []entity.WorkItemType
	Statuses []entity.ItemStatus
	Columns  []entity.Column
	// SprintID pointing at "" selects the backlog (items without a sprint).
	SprintID     *string
	AssigneeID   string
	WorkstreamID string
	BlockedOnly  bool
	Text         string
}

func (f Filter) Match(w entity.WorkItem) bool {
	if len(f.Types) > 0 && !contains(f.Types, w.Type) {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, w.Status) {
		return false
	}
	if len(f.Columns) > 0 && !contains(f.Columns, w.Column) {
		return false
	}
	if f.SprintID != nil && deref(w.SprintID) != *f.SprintID {
		return false
	}
	if f.AssigneeID != "" && deref(w.AssigneeID) != f.AssigneeID {
		return false
	}
	if f.WorkstreamID != "" && deref(w.WorkstreamID) != f.WorkstreamID {
		return false
	}
	if f.BlockedOnly && !w.Blocked {
		return false
	}
	if f.Text != "" {
		needle := strings.ToLower(f.Text)
		hay := strings.ToLower(w.ID + " " + w.Title + " " + w.Description)
		if !strings.Contains(hay, needle) {
			return false
		}
	}
	return true
}

// Apply returns the matching items in their original order.
func Apply(items []entity.WorkItem, f Filter) []entity.WorkItem {
	out := make([]entity.WorkItem, 0, len(items))
	for _, w := range items {
		if f.Match(w) {
			out = append(out, w)
		}
	}
	return out
}

// SortKey names a sortable work item field.
type SortKey string

const (
	SortCreated   SortKey = "createdAt"
	SortPriority  SortKey = "priority"
	SortEffort    SortKey = "effort"
	SortTitle     SortKey = "title"
	SortStartDate SortKey = "startDate"
)

// Sort orders items in place. The sort is stable, so equal keys keep load
// order. Items without a start date go last when sorting by date.
func Sort(items []entity.WorkItem, key SortKey, desc bool) {
	less := func(a, b entity.WorkItem) bool {
		switch key {
		case SortPriority:
			return a.Priority.Rank() < b.Priority.Rank()
		case SortEffort:
			return a.Effort < b.Effort
		case SortTitle:
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		case SortStartDate:
			if a.StartDate == nil || b.StartDate == nil {
				return a.StartDate != nil && b.StartDate == nil
			}
			return a.StartDate.Before(*b.StartDate)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
