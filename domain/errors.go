package domain

import "errors"

var (
	// ErrUpstreamUnavailable means the game API could not be reached or refused the request.
	ErrUpstreamUnavailable = errors.New("game api unavailable")
	// ErrNotFound means a queried player, clan or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTag is returned for strings that can never be a valid player or clan tag.
	ErrInvalidTag = errors.New("invalid tag")
	// ErrAlreadyRegistered is returned when a tag is already linked to another Discord account.
	ErrAlreadyRegistered = errors.New("already registered")

	// Data inconsistencies. These are logged and the affected step is skipped.
	ErrUnreconstructable = errors.New("reset times cannot be reconstructed")
	ErrInconsistentUsage = errors.New("inconsistent deck usage")
)
