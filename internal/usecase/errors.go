package usecase

import "errors"

var (
	// ErrNoFixtureAvailable means the team has no fixtures in the cached
	// window. Callers treat it as idle, not as a failure.
	ErrNoFixtureAvailable = errors.New("no fixture available")

	// ErrUnavailable covers transient upstream failures: the previous
	// published state is retained and the tick retries on schedule.
	ErrUnavailable = errors.New("upstream unavailable")

	// ErrStaleRejected flags a live payload that does not belong to the
	// selected fixture's live window.
	ErrStaleRejected = errors.New("live payload rejected as stale")

	// ErrMalformedPayload flags an upstream response that failed
	// structural validation. Handled the same as ErrUnavailable.
	ErrMalformedPayload = errors.New("malformed upstream payload")
)
