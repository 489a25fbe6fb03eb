package domain

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("permission denied")
	ErrNotFound           = errors.New("not found")
	ErrUnresolvable       = errors.New("associated candidate not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionRevoked     = errors.New("session revoked")
)
