package model

import "errors"

var (
	// ErrRepositoryNotFound indicates that the requested repository does not exist.
	ErrRepositoryNotFound = errors.New("repository not found")
	// ErrInvalidRepositoryID indicates that the provided repository ID is invalid (e.g., empty).
	ErrInvalidRepositoryID = errors.New("invalid repository ID")
)
