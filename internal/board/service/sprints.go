package service

import (
	"context"
	"fmt"

	"github.com/bitfantasy/agileboard/internal/board/entity"
	"github.com/bitfantasy/agileboard/internal/board/repository"
	"go.uber.org/zap"
)

const (
	opCreateSprint = "createSprint"
	opUpdateSprint = "updateSprint"
	opDeleteSprint = "deleteSprint"

	defaultSprintDays = 14
)

// CreateSprint inserts a sprint and selects it. Unset fields default from
// the last loaded sprint: start the day after its end, end 14 days later,
// name "Sprint N", status Planned.
func (b *Board) CreateSprint(ctx context.Context, fields entity.SprintPatch) (entity.Sprint, error) {
	if err := b.requireConfigured(); err != nil {
		return entity.Sprint{}, err
	}
	if err := fields.Validate(); err != nil {
		return entity.Sprint{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s := b.nextSprintDefaults()
	fields.Apply(&s)
	if fields.StartDate != nil && fields.EndDate == nil {
		s.EndDate = s.StartDate.AddDays(defaultSprintDays)
	}
	if s.EndDate.Before(s.StartDate) {
		return entity.Sprint{}, fmt.Errorf("%w: endDate %s before startDate %s", ErrInvalidInput, s.EndDate, s.StartDate)
	}

	if err := b.backend.Sprints.CreateSprint(ctx, &s); err != nil {
		if repository.IsSchemaMismatch(err) {
			return entity.Sprint{}, b.failSchema(opCreateSprint, err)
		}
		return entity.Sprint{}, b.fail(opCreateSprint, err)
	}
	b.logger.Info("Sprint created", zap.String("id", s.ID), zap.String("name", s.Name))

	b.mu.Lock()
	b.selectedSprintID = s.ID
	b.pendingSelect = s.ID
	b.pendingSeq = b.refreshSeq.Load()
	b.version++
	b.mu.Unlock()

	b.refreshAfter(ctx)
	return s, nil
}

func (b *Board) nextSprintDefaults() entity.Sprint {
	b.mu.RLock()
	count := len(b.sprints)
	var prevEnd entity.Date
	if count > 0 {
		prevEnd = b.sprints[count-1].EndDate
	}
	b.mu.RUnlock()

	start := entity.DateOf(b.now())
	if !prevEnd.IsZero() {
		start = prevEnd.AddDays(1)
	}
	return entity.Sprint{
		Name:      fmt.Sprintf("Sprint %d", count+1),
		StartDate: start,
		EndDate:   start.AddDays(defaultSprintDays),
		Status:    entity.SprintPlanned,
		CreatedAt: b.now(),
	}
}

// UpdateSprint writes the set fields remotely and reloads. There is no
// optimistic local change for sprints.
func (b *Board) UpdateSprint(ctx context.Context, id string, fields entity.SprintPatch) error {
	if err := b.requireConfigured(); err != nil {
		return err
	}
	if err := fields.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if fields.IsEmpty() {
		return nil
	}

	var failure error
	if err := b.backend.Sprints.UpdateSprint(ctx, id, fields); err != nil {
		if repository.IsSchemaMismatch(err) {
			return b.failSchema(opUpdateSprint, err)
		}
		failure = b.fail(opUpdateSprint, err)
	}
	b.refreshAfter(ctx)
	return failure
}

// DeleteSprint unlinks the sprint's work items, then deletes the sprint,
// with loading raised for the whole sequence. A failure stops the sequence
// where it is; unlinking again later is harmless.
func (b *Board) DeleteSprint(ctx context.Context, id string) error {
	if err := b.requireConfigured(); err != nil {
		return err
	}

	b.setLoading(true)
	err := b.deleteSprint(ctx, id)
	if err != nil {
		err = b.fail(opDeleteSprint, err)
	}
	b.refreshAfter(ctx)
	b.setLoading(false)
	return err
}

func (b *Board) deleteSprint(ctx context.Context, id string) error {
	n, err := b.backend.WorkItems.ClearSprint(ctx, id)
	if err != nil {
		return fmt.Errorf("unlink work items: %w", err)
	}

	b.mu.Lock()
	for i := range b.workItems {
		if sid := b.workItems[i].SprintID; sid != nil && *sid == id {
			b.workItems[i].SprintID = nil
		}
	}
	b.version++
	b.mu.Unlock()

	if err := b.backend.Sprints.DeleteSprint(ctx, id); err != nil {
		return fmt.Errorf("delete sprint: %w", err)
	}

	b.mu.Lock()
	if b.selectedSprintID == id {
		b.selectedSprintID = ""
	}
	b.version++
	b.mu.Unlock()

	b.logger.Info("Sprint deleted", zap.String("id", id), zap.Int64("unlinked", n))
	return nil
}

// Sprint returns a copy of the loaded sprint.
func (b *Board) Sprint(id string) (entity.Sprint, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	idx := indexOfSprint(b.sprints, id)
	if idx < 0 {
		return entity.Sprint{}, false
	}
	return b.sprints[idx], true
}
