// Package errs defines the typed error taxonomy shared across the
// coordination core (see spec.md §6.5 / §7).
package errs

import "errors"

// Sentinel errors. Components wrap these with fmt.Errorf("...: %w", Sentinel)
// so callers can classify failures with errors.Is regardless of which
// component produced them.
var (
	// InvalidArgument signals a malformed proposal, empty participant set,
	// negative budget, or similar caller mistake.
	InvalidArgument = errors.New("invalid argument")

	// NotFound signals an unknown agent, missing proposal, or absent session.
	NotFound = errors.New("not found")

	// AlreadyExists signals a duplicate algorithm name or duplicate agent id.
	AlreadyExists = errors.New("already exists")

	// BudgetExceeded signals a token allocation or consumption overflow.
	BudgetExceeded = errors.New("budget exceeded")

	// StorageError signals a durable write failure in the event store.
	StorageError = errors.New("storage error")

	// Timeout signals a consensus or hook wall-clock budget was exceeded.
	Timeout = errors.New("timeout")

	// ConsensusFailure signals a decision could not be reached at all,
	// e.g. a Raft run that never elects a leader within its deadline.
	ConsensusFailure = errors.New("consensus failure")
)
