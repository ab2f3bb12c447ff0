package storage

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// ConstraintError is an ErrConflict carrying the violated constraint name,
// so services can map duplicate-key races onto field-scoped validation
// errors instead of surfacing a raw storage failure.
type ConstraintError struct {
	Constraint string
}

func (e *ConstraintError) Error() string {
	return "conflict on constraint " + e.Constraint
}

func (e *ConstraintError) Unwrap() error {
	return ErrConflict
}
