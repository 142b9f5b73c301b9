package game

import "errors"

// Rejected-precondition sentinels. Handlers wrap them with detail via %w.
var (
	ErrNotFound            = errors.New("not found")
	ErrOutOfTurn           = errors.New("not your turn")
	ErrWrongPhase          = errors.New("action not allowed in this phase")
	ErrInvalidTarget       = errors.New("invalid target")
	ErrInvalidPendingState = errors.New("invalid pending draw")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrPreconditionNotMet  = errors.New("precondition not met")

	// ErrConflict is returned by a Store when optimistic retries are exhausted.
	ErrConflict = errors.New("transaction conflict")
)

// ErrorCode maps an error to the stable code sent to clients.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrOutOfTurn):
		return "out_of_turn"
	case errors.Is(err, ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, ErrInvalidTarget):
		return "invalid_target"
	case errors.Is(err, ErrInvalidPendingState):
		return "invalid_pending_state"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrPreconditionNotMet):
		return "precondition_not_met"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}
