package apperrors

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrUnauthenticated   = errors.New("no authenticated user")
	ErrInvalidTransition = errors.New("invalid timer transition")
	ErrNoTimerState      = errors.New("no persisted timer state")
)
