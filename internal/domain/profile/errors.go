package profile

import "errors"

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrStoreUnavailable = errors.New("profile store unavailable")

	ErrEditorClosed      = errors.New("editor closed")
	ErrInvalidTransition = errors.New("invalid editor transition")
	ErrNotEditing        = errors.New("editor is not in edit mode")
	ErrSaveInFlight      = errors.New("save in progress")
	ErrEmailReadOnly     = errors.New("email is read-only")
	ErrUnknownField      = errors.New("unknown profile field")
	ErrInvalidDate       = errors.New("date must be YYYY-MM-DD")

	ErrSessionNotFound = errors.New("editor session not found")
	ErrNotSessionOwner = errors.New("not editor session owner")
	ErrTooManySessions = errors.New("too many open editor sessions")
)
