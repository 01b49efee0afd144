package engine

import "errors"

// Engine error taxonomy. Callers branch with errors.Is; the gRPC layer maps
// all three to codes.Unavailable.
var (
	// ErrScoringUnavailable: the candidate query could not run to
	// completion. No partial candidate list is ever returned alongside it.
	ErrScoringUnavailable = errors.New("candidate scoring unavailable")

	// ErrCacheWriteFailed: a materialization could not commit its ranked
	// set. The user's previous entry, if any, is left as-is.
	ErrCacheWriteFailed = errors.New("match cache write failed")

	// ErrCacheUnavailable: the cache store was unreachable on the read
	// path. Distinct from an absent entry, which reads as empty.
	ErrCacheUnavailable = errors.New("match cache unavailable")
)
