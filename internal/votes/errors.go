package votes

import "errors"

// Sentinel errors for the ledger operations. Handlers match them with
// errors.Is and translate them to HTTP status codes.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict surfaces a unique-index violation on the votes table. It can
	// only happen when two processes race past the in-process lock; retrying
	// the whole operation is safe.
	ErrConflict = errors.New("conflicting concurrent vote")
)
