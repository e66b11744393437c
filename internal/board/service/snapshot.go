package service

import (
	"github.com/bitfantasy/agileboard/internal/board/entity"
)

// Snapshot is a read-only copy of the board.
type Snapshot struct {
	Users            []entity.User     `json:"users"`
	Sprints          []entity.Sprint   `json:"sprints"`
	WorkItems        []entity.WorkItem `json:"workItems"`
	Loading          bool              `json:"loading"`
	Configured       bool              `json:"configured"`
	SelectedSprintID *string           `json:"selectedSprintId"`
	SelectedSprint   *entity.Sprint    `json:"selectedSprint"`
	Version          uint64            `json:"version"`
}

// Snapshot returns a deep copy of the current state.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := Snapshot{
		Users:      make([]entity.User, len(b.users)),
		Sprints:    append(make([]entity.Sprint, 0, len(b.sprints)), b.sprints...),
		WorkItems:  make([]entity.WorkItem, len(b.workItems)),
		Loading:    b.loading,
		Configured: b.configured,
		Version:    b.version,
	}
	for i := range b.users {
		s.Users[i] = b.users[i].Clone()
	}
	for i := range b.workItems {
		s.WorkItems[i] = b.workItems[i].Clone()
	}
	if b.selectedSprintID != "" {
		id := b.selectedSprintID
		s.SelectedSprintID = &id
		if idx := indexOfSprint(b.sprints, id); idx >= 0 {
			sprint := b.sprints[idx]
			s.SelectedSprint = &sprint
		}
	}
	return s
}

// User returns a copy of the loaded user.
func (b *Board) User(id string) (entity.User, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, u := range b.users {
		if u.ID == id {
			return u.Clone(), true
		}
	}
	return entity.User{}, false
}
