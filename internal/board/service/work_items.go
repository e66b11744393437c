package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bitfantasy/agileboard/internal/board/entity"
	"github.com/bitfantasy/agileboard/internal/board/repository"
	"go.uber.org/zap"
)

const (
	opCreateWorkItem = "createWorkItem"
	opUpdateWorkItem = "updateWorkItem"
	opDeleteWorkItem = "deleteWorkItem"
)

// CreateWorkItem inserts a new work item built from fields. The id is
// generated here and any id in fields is ignored. Nothing is added locally
// until the follow-up refresh returns the stored row.
func (b *Board) CreateWorkItem(ctx context.Context, fields entity.WorkItem) (entity.WorkItem, error) {
	if err := b.requireConfigured(); err != nil {
		return entity.WorkItem{}, err
	}
	if fields.Effort < 0 {
		return entity.WorkItem{}, fmt.Errorf("%w: effort must not be negative", ErrInvalidInput)
	}
	w := fields.Clone()
	w.ApplyDefaults()
	if err := validateWorkItem(w); err != nil {
		return entity.WorkItem{}, err
	}

	taken := b.workItemIDs()
	var created bool
	for attempt := 1; attempt <= maxCreateAttempts && !created; attempt++ {
		id, err := NewWorkItemID(b.idReader)
		if err != nil {
			return entity.WorkItem{}, b.fail(opCreateWorkItem, err)
		}
		if taken[id] {
			b.logger.Debug("Generated id already in use", zap.String("id", id))
			continue
		}
		w.ID = id
		err = b.backend.WorkItems.CreateWorkItem(ctx, &w)
		switch {
		case err == nil:
			created = true
		case errors.Is(err, repository.ErrDuplicate):
			b.logger.Warn("Work item id collided remotely, retrying", zap.String("id", id), zap.Int("attempt", attempt))
			taken[id] = true
		case repository.IsSchemaMismatch(err):
			return entity.WorkItem{}, b.failSchema(opCreateWorkItem, err)
		default:
			return entity.WorkItem{}, b.fail(opCreateWorkItem, err)
		}
	}
	if !created {
		return entity.WorkItem{}, b.fail(opCreateWorkItem, fmt.Errorf("no free id after %d attempts", maxCreateAttempts))
	}

	b.logger.Info("Work item created", zap.String("id", w.ID), zap.String("type", string(w.Type)))
	b.refreshAfter(ctx)
	return w, nil
}

// UpdateWorkItem merges patch into the local item right away, then writes
// the same fields remotely. A schema mismatch only raises an alert. Any
// other failure drops the optimistic state by reloading from the server.
func (b *Board) UpdateWorkItem(ctx context.Context, id string, patch entity.WorkItemPatch) error {
	return b.updateWorkItem(ctx, opUpdateWorkItem, id, func(*entity.WorkItem) (entity.WorkItemPatch, error) {
		return patch, nil
	})
}

// patchFunc derives a patch from the current local item while the board is
// locked. current is nil when the item is not loaded.
type patchFunc func(current *entity.WorkItem) (entity.WorkItemPatch, error)

func (b *Board) updateWorkItem(ctx context.Context, op, id string, build patchFunc) error {
	if err := b.requireConfigured(); err != nil {
		return err
	}

	// Phase 1: local merge.
	b.mu.Lock()
	var current *entity.WorkItem
	idx := indexOfWorkItem(b.workItems, id)
	if idx >= 0 {
		current = &b.workItems[idx]
	}
	patch, err := build(current)
	if err == nil {
		err = patch.Validate()
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	if err != nil || patch.IsEmpty() {
		b.mu.Unlock()
		return err
	}
	if current != nil {
		patch.Apply(current)
		b.version++
	}
	b.mu.Unlock()
	if current != nil {
		b.notify()
	}

	// Phase 2: remote write.
	err = b.backend.WorkItems.UpdateWorkItem(ctx, id, patch)
	if err == nil {
		return nil
	}
	if repository.IsSchemaMismatch(err) {
		return b.failSchema(op, err)
	}
	err = b.fail(op, err)
	b.refreshAfter(ctx)
	return err
}

// DeleteWorkItem deletes remotely and reloads. The item stays visible until
// the reload lands.
func (b *Board) DeleteWorkItem(ctx context.Context, id string) error {
	if err := b.requireConfigured(); err != nil {
		return err
	}
	var failure error
	if err := b.backend.WorkItems.DeleteWorkItem(ctx, id); err != nil {
		failure = b.fail(opDeleteWorkItem, err)
	} else {
		b.logger.Info("Work item deleted", zap.String("id", id))
	}
	b.refreshAfter(ctx)
	return failure
}

// WorkItem returns a copy of the loaded item.
func (b *Board) WorkItem(id string) (entity.WorkItem, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	idx := indexOfWorkItem(b.workItems, id)
	if idx < 0 {
		return entity.WorkItem{}, false
	}
	return b.workItems[idx].Clone(), true
}

func (b *Board) workItemIDs() map[string]bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make(map[string]bool, len(b.workItems))
	for _, w := range b.workItems {
		ids[w.ID] = true
	}
	return ids
}

func validateWorkItem(w entity.WorkItem) error {
	if strings.TrimSpace(w.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	// Reuse the patch rules for the enum and range checks.
	effort := w.Effort
	p := entity.WorkItemPatch{
		Type:          &w.Type,
		Priority:      &w.Priority,
		Effort:        &effort,
		Status:        &w.Status,
		Column:        &w.Column,
		CostType:      &w.CostType,
		BillingStatus: &w.BillingStatus,
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
