package repository

import (
	"context"

	"github.com/bitfantasy/agileboard/internal/board/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository 用户仓库 (profiles 表)
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// ListUsers returns every profile ordered by name.
func (r *ProfileRepository) ListUsers(ctx context.Context) ([]entity.User, error) {
	var rows []profileRow
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	users := make([]entity.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toEntity())
	}
	return users, nil
}

// CreateUser inserts u and writes the generated id back into it.
func (r *ProfileRepository) CreateUser(ctx context.Context, u *entity.User) error {
	row := profileRow{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
	if err := r.db.WithContext(ctx).Clauses(clause.Returning{}).Create(&row).Error; err != nil {
		return classify(err)
	}
	*u = row.toEntity()
	return nil
}

// DeleteUser removes the profile. Work items assigned to it keep the id.
func (r *ProfileRepository) DeleteUser(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&profileRow{}).Error
	return classify(err)
}
