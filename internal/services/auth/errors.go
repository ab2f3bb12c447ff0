package auth

import "errors"

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrReservedUsername        = errors.New("this username is reserved")
	ErrInvalidConfirmationCode = errors.New("invalid confirmation code")
)

// ConflictError reports signup identity collisions per field.
type ConflictError struct {
	Fields map[string]string
}

func (e *ConflictError) Error() string {
	return "signup conflict"
}
