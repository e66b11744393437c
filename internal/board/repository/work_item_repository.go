package repository

import (
	"context"

	"github.com/bitfantasy/agileboard/internal/board/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WorkItemRepository 工作项仓库
type WorkItemRepository struct {
	db *gorm.DB
}

func NewWorkItemRepository(db *gorm.DB) *WorkItemRepository {
	return &WorkItemRepository{db: db}
}

// ListWorkItems returns work items in creation order.
func (r *WorkItemRepository) ListWorkItems(ctx context.Context) ([]entity.WorkItem, error) {
	var rows []workItemRow
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	items := make([]entity.WorkItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// CreateWorkItem inserts w with its client generated id. A clash on the id
// surfaces as ErrDuplicate.
func (r *WorkItemRepository) CreateWorkItem(ctx context.Context, w *entity.WorkItem) error {
	row := workItemRowFrom(*w)
	if err := r.db.WithContext(ctx).Clauses(clause.Returning{}).Create(&row).Error; err != nil {
		return classify(err)
	}
	*w = row.toEntity()
	return nil
}

// UpdateWorkItem writes only the fields set in patch.
func (r *WorkItemRepository) UpdateWorkItem(ctx context.Context, id string, patch entity.WorkItemPatch) error {
	cols := workItemColumns(patch)
	if len(cols) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&workItemRow{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *WorkItemRepository) DeleteWorkItem(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&workItemRow{}).Error
	return classify(err)
}

// ClearSprint unlinks every work item from the sprint and returns how many
// rows changed. Running it twice is harmless.
func (r *WorkItemRepository) ClearSprint(ctx context.Context, sprintID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&workItemRow{}).
		Where("sprint_id = ?", sprintID).
		Update("sprint_id", gorm.Expr("NULL"))
	if result.Error != nil {
		return 0, classify(result.Error)
	}
	return result.RowsAffected, nil
}
