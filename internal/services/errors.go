// Package services implements the automation core and the operator-facing
// business logic: the reply bot, the comment bot, the lead funnel sweeps, and
// the admin CRUD surface.
//
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers. Translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

var (
	// ErrAccountNotFound indicates that the requested account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrPostNotFound indicates that the requested monitored post does not exist.
	ErrPostNotFound = errors.New("monitored post not found")

	// ErrWatchNotFound indicates that the requested watched account does not exist.
	ErrWatchNotFound = errors.New("watched account not found")

	// ErrLeadNotFound indicates that the requested lead does not exist.
	ErrLeadNotFound = errors.New("lead not found")

	// ErrValidation is returned when a create/update payload fails basic
	// field validation. The wrapped message names the offending field.
	ErrValidation = errors.New("validation failed")

	// ErrPostInactive is returned when a manual poll is triggered for a post
	// that has been deactivated.
	ErrPostInactive = errors.New("monitored post is not active")

	// ErrWatchInactive is returned when a manual check is triggered for a
	// watched account that has been deactivated.
	ErrWatchInactive = errors.New("watched account is not active")
)
