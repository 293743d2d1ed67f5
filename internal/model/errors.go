package model

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist or
	// must be hidden from the requester.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a create collides with an existing row.
	ErrConflict = errors.New("already exists")
	// ErrForbidden is returned when an authenticated principal is not
	// entitled to the operation.
	ErrForbidden = errors.New("forbidden")
)
