package model

import "errors"

var (
	// ErrOrganizationNotFound indicates that the requested organization does not exist.
	ErrOrganizationNotFound = errors.New("organization not found")
	// ErrInvalidOrganizationID indicates that the provided organization ID is invalid (e.g., empty).
	ErrInvalidOrganizationID = errors.New("invalid organization ID")
)
