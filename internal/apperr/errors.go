package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrNotReady = errors.New("not ready")
	ErrInvalid  = errors.New("invalid input")
)
