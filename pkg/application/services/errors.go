package services

import "errors"

var (
	ErrUnknownUser        = errors.New("unknown user")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrItemNotFound       = errors.New("inventory item not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidQuantity    = errors.New("quantity must be non-zero")
	ErrInvalidCredentials = errors.New("invalid employee id or password")
	ErrUserExists         = errors.New("user already exists")
)
