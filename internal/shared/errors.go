package shared

import "errors"

var (
	// ErrNotFound indicates a role, user, assignment or scope entity is absent.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a duplicate live assignment or an already-held seat.
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput indicates a missing scope id, unknown scope kind or missing routing context.
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden indicates a failed permission or role check.
	ErrForbidden = errors.New("forbidden")
	// ErrUnavailable indicates a transient cache or store failure.
	ErrUnavailable = errors.New("unavailable")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
