package core

import "errors"

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrAlreadyPaid          = errors.New("contribution already paid")
	ErrCurrencyMismatch     = errors.New("currency mismatch")
	ErrNotFound             = errors.New("not found")

	ErrInvalidAmount    = errors.New("invalid amount")
	ErrUnknownCurrency  = errors.New("unknown currency")
	ErrInvalidPattern   = errors.New("invalid recurrence pattern")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidDate      = errors.New("invalid date")
	ErrMissingReference = errors.New("missing reference")
	ErrAlreadyActive    = errors.New("already active")
	ErrAlreadyInactive  = errors.New("already inactive")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidMethod    = errors.New("invalid payment method")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrInUse            = errors.New("still referenced")
	ErrDuplicate        = errors.New("already exists")
)
