// Package common defines shared constants and sentinel errors used across
// the cryptdrive client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Auth errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotLoggedIn        = errors.New("not logged in")

	// Item errors.
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	ErrNotSynced     = errors.New("not synced locally")
	ErrInvalidName   = errors.New("invalid name")

	// Generic flow control.
	ErrInternal = errors.New("internal error")
)
