package matcherrors

import "errors"

// Rejoin/matchmaking sentinel errors. Used by both matchmaking and ws packages
// to avoid circular imports.
var (
	ErrGameNotFound  = errors.New("game not found")
	ErrGameFinished  = errors.New("game finished")
	ErrNotSeated     = errors.New("you are not seated in this game")
	ErrNoActiveGame  = errors.New("no active game for this user")
	ErrAlreadyQueued = errors.New("already waiting for a match")
	ErrNotIdentified = errors.New("set a name or authenticate first")
)
