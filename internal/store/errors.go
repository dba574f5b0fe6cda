package store

import "errors"

var (
	// ErrNotFound is returned when a record or stored file does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateUser is returned when a username is already taken.
	ErrDuplicateUser = errors.New("username already exists")

	// ErrFileTooLarge is returned for uploads over MaxUploadSize.
	ErrFileTooLarge = errors.New("file too large")
)
