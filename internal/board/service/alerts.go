package service

import (
	"fmt"

	"go.uber.org/zap"
)

// AlertKind tells the UI how to present an alert.
type AlertKind string

const (
	AlertError AlertKind = "error"
	// AlertSchema asks the operator to re-run setup.
	AlertSchema AlertKind = "schema"
)

// Alert is a blocking user-visible message about a failed operation.
type Alert struct {
	Op      string    `json:"op"`
	Kind    AlertKind `json:"kind"`
	Message string    `json:"message"`
}

// Alerter shows alerts to users.
type Alerter interface {
	Alert(a Alert)
}

type nopAlerter struct{}

func (nopAlerter) Alert(Alert) {}

const schemaGuidance = "The database schema is missing a field used by this change. Run `agileboard setup` again to update it."

// fail logs err, raises an alert naming the operation and returns err
// wrapped with op.
func (b *Board) fail(op string, err error) error {
	b.logger.Error("Operation failed", zap.String("op", op), zap.Error(err))
	b.alerter.Alert(Alert{
		Op:      op,
		Kind:    AlertError,
		Message: fmt.Sprintf("%s failed: %v", op, err),
	})
	return fmt.Errorf("%s: %w", op, err)
}

func (b *Board) failSchema(op string, err error) error {
	b.logger.Warn("Schema mismatch", zap.String("op", op), zap.Error(err))
	b.alerter.Alert(Alert{Op: op, Kind: AlertSchema, Message: schemaGuidance})
	return fmt.Errorf("%s: %w", op, err)
}
