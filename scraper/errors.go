package scraper

import (
	"errors"
)

var (
	// ErrSourceUnavailable means the listing source is unreachable or sits
	// behind a login the current session cannot pass. An empty result with
	// this condition is a legitimate terminal state for discovery, not a
	// failure of the run.
	ErrSourceUnavailable = errors.New("auction source unavailable")

	// ErrSessionExpired means a lot page resolved to login chrome mid-run.
	// Fatal to the current lot only; the caller should re-authenticate
	// before the next invocation.
	ErrSessionExpired = errors.New("session expired")
)
