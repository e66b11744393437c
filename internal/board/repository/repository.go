package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate key")
	ErrSchemaMismatch = errors.New("database schema is out of date")
)

// Postgres SQLSTATE codes the board reacts to.
const (
	codeUndefinedColumn = "42703"
	codeUndefinedTable  = "42P01"
	codeUniqueViolation = "23505"
)

// Repositories groups the board tables.
type Repositories struct {
	Profiles  *ProfileRepository
	Sprints   *SprintRepository
	WorkItems *WorkItemRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Profiles:  NewProfileRepository(db),
		Sprints:   NewSprintRepository(db),
		WorkItems: NewWorkItemRepository(db),
	}
}

// classify maps driver errors onto the package sentinels while keeping the
// original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUndefinedColumn, codeUndefinedTable:
			return fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
		case codeUniqueViolation:
			return fmt.Errorf("%w: %w", ErrDuplicate, err)
		}
	}
	return err
}

// IsSchemaMismatch reports whether err means the remote schema lacks a
// table or column the board writes.
func IsSchemaMismatch(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}
