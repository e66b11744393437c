package repository

import (
	"context"

	"github.com/bitfantasy/agileboard/internal/board/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SprintRepository 迭代仓库
type SprintRepository struct {
	db *gorm.DB
}

func NewSprintRepository(db *gorm.DB) *SprintRepository {
	return &SprintRepository{db: db}
}

// ListSprints returns sprints in creation order.
func (r *SprintRepository) ListSprints(ctx context.Context) ([]entity.Sprint, error) {
	var rows []sprintRow
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	sprints := make([]entity.Sprint, 0, len(rows))
	for _, row := range rows {
		sprints = append(sprints, row.toEntity())
	}
	return sprints, nil
}

// CreateSprint inserts s. The generated id and timestamp are written back.
func (r *SprintRepository) CreateSprint(ctx context.Context, s *entity.Sprint) error {
	row := sprintRowFrom(*s)
	if err := r.db.WithContext(ctx).Clauses(clause.Returning{}).Create(&row).Error; err != nil {
		return classify(err)
	}
	*s = row.toEntity()
	return nil
}

func (r *SprintRepository) UpdateSprint(ctx context.Context, id string, patch entity.SprintPatch) error {
	cols := sprintColumns(patch)
	if len(cols) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&sprintRow{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SprintRepository) DeleteSprint(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&sprintRow{}).Error
	return classify(err)
}
