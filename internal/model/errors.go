package model

import "errors"

// Error kinds shared by every component. Callers match with errors.Is;
// the HTTP layer maps these to status codes.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrTransient   = errors.New("transient")
	ErrInvalid     = errors.New("invalid")
	ErrAuthFailure = errors.New("auth failure")
	ErrFatal       = errors.New("fatal")
)
