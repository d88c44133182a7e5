package model

import "errors"

var (
	// ErrPullRequestNotFound indicates that the requested pull request does not exist.
	ErrPullRequestNotFound = errors.New("pull request not found")
	// ErrInvalidPullRequestID indicates that the provided pull request ID is invalid (e.g., empty).
	ErrInvalidPullRequestID = errors.New("invalid pull request ID")
)
