// Package common defines shared constants and sentinel errors used across
// client and server layers of facevote. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Voting errors.
	ErrorIneligible    = errors.New("voter not eligible")
	ErrorAlreadyVoted  = errors.New("voter has already voted")
	ErrorInvalidBallot = errors.New("invalid ballot")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Limiter errors.
	ErrRateLimited = errors.New("too many attempts")
)
