package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrAlreadyExists indicates a first-write-wins insert lost the race.
	ErrAlreadyExists = errors.New("repository: already exists")
	// ErrEmailTaken indicates the email unique constraint rejected a new user.
	ErrEmailTaken = errors.New("repository: email already registered")
)
