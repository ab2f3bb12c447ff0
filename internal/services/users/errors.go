package users

import "errors"

var ErrUserNotFound = errors.New("user not found")

// ConflictError reports username/email collisions per field.
type ConflictError struct {
	Fields map[string]string
}

func (e *ConflictError) Error() string {
	return "user identity conflict"
}
