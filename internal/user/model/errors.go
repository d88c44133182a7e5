package model

import "errors"

var (
	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrDiscordNotLinked indicates that the user has no linked Discord account.
	ErrDiscordNotLinked = errors.New("user has no linked discord account")
)
