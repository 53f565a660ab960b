package store

import "errors"

var (
	// ErrSchemaMismatch indicates the database schema version does not match
	// the version this binary expects.
	ErrSchemaMismatch = errors.New("schema version mismatch")

	// ErrDuplicateEpisode indicates an episode with the same guid already
	// has a row, so admission must not create another.
	ErrDuplicateEpisode = errors.New("episode already admitted")

	// ErrInvalidTransition indicates a stage advance found the record in a
	// status other than the expected precondition.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDuplicateDelivery indicates the per-recipient ledger already holds
	// an entry for this episode and recipient.
	ErrDuplicateDelivery = errors.New("delivery already recorded")

	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("record not found")
)
