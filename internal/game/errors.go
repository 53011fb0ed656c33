package game

import "errors"

// Routine business outcomes of join and mark submission. Returned as
// values, never panics; callers map them to their own surface.
var (
	ErrNotFound          = errors.New("not_found")
	ErrInvalidState      = errors.New("invalid_state")
	ErrFull              = errors.New("game_full")
	ErrAlreadyJoined     = errors.New("already_joined")
	ErrInsufficientFunds = errors.New("insufficient_funds")
)
