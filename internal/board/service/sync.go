package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfantasy/agileboard/internal/board/entity"
	"go.uber.org/zap"
)

const opSyncSprints = "syncSprintsByDate"

// SyncPolicy decides whether a dated item belongs to a sprint window.
type SyncPolicy string

const (
	// SyncContainment needs the item's whole range inside the sprint.
	SyncContainment SyncPolicy = "containment"
	// SyncStartDate only looks at the item's start date.
	SyncStartDate SyncPolicy = "start"
)

// ParseSyncPolicy maps "" to SyncContainment.
func ParseSyncPolicy(s string) (SyncPolicy, error) {
	switch SyncPolicy(s) {
	case "", SyncContainment:
		return SyncContainment, nil
	case SyncStartDate:
		return SyncStartDate, nil
	}
	return "", fmt.Errorf("%w: unknown sync policy %q", ErrInvalidInput, s)
}

func (p SyncPolicy) matches(s entity.Sprint, w entity.WorkItem) bool {
	if s.StartDate.IsZero() || s.EndDate.IsZero() || w.StartDate == nil {
		return false
	}
	if p == SyncStartDate {
		return w.StartDate.Within(s.StartDate, s.EndDate)
	}
	return w.EndDate != nil && s.Contains(*w.StartDate, *w.EndDate)
}

func (p SyncPolicy) eligible(w entity.WorkItem) bool {
	if !w.Type.Schedulable() || w.StartDate == nil {
		return false
	}
	return p == SyncStartDate || w.EndDate != nil
}

// SyncReport counts what a sync pass did.
type SyncReport struct {
	Policy    SyncPolicy `json:"policy"`
	Matched   int        `json:"matched"`
	Updated   int        `json:"updated"`
	Unmatched int        `json:"unmatched"`
	Skipped   int        `json:"skipped"`
	Failed    int        `json:"failed"`
}

// SyncSprintsByDate assigns every dated Task and Bug to the first sprint,
// in load order, whose window matches under policy. Bounds are inclusive.
// Items that match no sprint keep their current sprint.
func (b *Board) SyncSprintsByDate(ctx context.Context, policy SyncPolicy) (SyncReport, error) {
	report := SyncReport{Policy: policy}
	if err := b.requireConfigured(); err != nil {
		return report, err
	}

	b.mu.RLock()
	sprints := append([]entity.Sprint(nil), b.sprints...)
	items := make([]entity.WorkItem, len(b.workItems))
	for i := range b.workItems {
		items[i] = b.workItems[i].Clone()
	}
	b.mu.RUnlock()

	var errs []error
	for _, w := range items {
		if !policy.eligible(w) {
			report.Skipped++
			continue
		}
		target := ""
		for _, s := range sprints {
			if policy.matches(s, w) {
				target = s.ID
				break
			}
		}
		if target == "" {
			report.Unmatched++
			continue
		}
		report.Matched++
		if w.SprintID != nil && *w.SprintID == target {
			continue
		}
		if err := b.updateWorkItem(ctx, opSyncSprints, w.ID, func(*entity.WorkItem) (entity.WorkItemPatch, error) {
			return entity.WorkItemPatch{SprintID: entity.Some(target)}, nil
		}); err != nil {
			report.Failed++
			errs = append(errs, err)
			continue
		}
		report.Updated++
	}

	b.logger.Info("Sprints synced by date",
		zap.String("policy", string(policy)),
		zap.Int("matched", report.Matched),
		zap.Int("updated", report.Updated),
		zap.Int("failed", report.Failed),
	)
	return report, errors.Join(errs...)
}
