package friendship

import "errors"

// Sentinel errors returned by the Manager. Handlers map them to HTTP codes
// with errors.Is; nothing here is retried internally.
var (
	// ErrNotFound: the operation requires an existing relationship row.
	ErrNotFound = errors.New("friendship: no relationship exists")
	// ErrConflict: a relationship already exists for the pair (or a
	// concurrent create won the unique index).
	ErrConflict = errors.New("friendship: relationship already exists")
	// ErrForbidden: the caller is not a legitimate party to the transition.
	ErrForbidden = errors.New("friendship: caller may not perform this transition")
	// ErrInvalidState: the transition is not legal from the current status.
	ErrInvalidState = errors.New("friendship: transition not allowed in current state")
	// ErrInvalidArgument: malformed or missing input (self-request,
	// unknown transition value).
	ErrInvalidArgument = errors.New("friendship: invalid argument")
)
