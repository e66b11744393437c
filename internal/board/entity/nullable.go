package entity

import (
	"bytes"
	"encoding/json"
)

// Nullable is a patch field for a nullable column. It keeps three states
// apart: absent (Set false), explicit null (Set true, Valid false) and a
// value (Set and Valid).
type Nullable[T any] struct {
	Set   bool
	Valid bool
	V     T
}

// Some returns a Nullable holding v.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Valid: true, V: v}
}

// Null returns a Nullable that clears the field.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// FromPtr maps nil to Null and anything else to Some.
func FromPtr[T any](p *T) Nullable[T] {
	if p == nil {
		return Null[T]()
	}
	return Some(*p)
}

// zeroer is implemented by values with an empty state that stores as NULL,
// such as Date.
type zeroer interface {
	IsZero() bool
}

func isZeroValue(v any) bool {
	z, ok := v.(zeroer)
	return ok && z.IsZero()
}

// Ptr returns nil for null, otherwise a pointer to a copy of the value.
// A zero Date counts as null.
func (n Nullable[T]) Ptr() *T {
	if !n.Valid || isZeroValue(n.V) {
		return nil
	}
	v := n.V
	return &v
}

// UnmarshalJSON is only invoked for keys present in the document, which is
// what marks the field as set. A value that decodes to a zero Date ("") is
// taken as null.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		var zero T
		n.Valid = false
		n.V = zero
		return nil
	}
	if err := json.Unmarshal(data, &n.V); err != nil {
		return err
	}
	n.Valid = !isZeroValue(n.V)
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.V)
}
