package model

import "errors"

var (
	// ErrNotFound is returned by stores when no row matches.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique constraint rejects an insert.
	ErrAlreadyExists = errors.New("already exists")
	// ErrSessionNotActive is returned by Rotate when the old session was revoked or expired
	// before the rotation could claim it.
	ErrSessionNotActive = errors.New("session is not active")
)
