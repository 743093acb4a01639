package service

import "errors"

var (
	// ErrConfiguration means a required upstream credential is missing.
	ErrConfiguration = errors.New("configuration error")
	// ErrUpstream means the completion service failed or was unreachable.
	ErrUpstream = errors.New("upstream error")
	// ErrValidation means the request itself is malformed.
	ErrValidation = errors.New("validation error")
	// ErrActionParse means a recognised action carried an unusable payload.
	ErrActionParse = errors.New("action parse failure")
	// ErrActionApply means a recognised action failed against the store.
	ErrActionApply = errors.New("action apply failure")

	ErrDuplicateGoal      = errors.New("goal with this name already exists")
	ErrGmailNotLinked     = errors.New("gmail not connected")
	ErrOAuthNotConfigured = errors.New("google oauth is not configured")
)
