// Package errkind defines the error taxonomy shared by the broker, the agent
// pipeline, and the persistence sink. Every layer that can fail classifies the
// failure into one of these kinds rather than inventing its own error type.
package errkind

import stderrors "errors"

// Kind is a stable, loggable, UI-safe label for a failure. It is never meant
// to carry sensitive details from an LLM response or a database error.
type Kind string

const (
	// Transient kinds are retried by the layer that observed them; if the
	// layer's retry budget is exhausted they bubble up as a Transient error.
	TransientNetwork        Kind = "transient/network"
	TransientTimeout        Kind = "transient/timeout"
	TransientRateLimited    Kind = "transient/rate_limited"
	TransientInProgress     Kind = "transient/in_progress"
	TransientValidationRetry Kind = "transient/validation_retry"

	// Permanent kinds are never retried; they terminate the thought and
	// produce a DLQ entry (permanent/stuck is the exception: the sweeper
	// produces it directly without ever going through the broker).
	PermanentUnknownUser    Kind = "permanent/unknown_user"
	PermanentInvalidPayload Kind = "permanent/invalid_payload"
	PermanentQuotaExhausted Kind = "permanent/quota_exhausted"
	PermanentContentPolicy  Kind = "permanent/content_policy"
	PermanentInvariant      Kind = "permanent/invariant"
	PermanentStuck          Kind = "permanent/stuck"
	PermanentRetryExhausted Kind = "permanent/retry_budget_exhausted"

	// Cache kinds are always swallowed by internal/cache's caller; they are
	// recorded here only so a log line can carry a stable label.
	CacheUnavailable Kind = "cache/unavailable"
	CacheLookupError Kind = "cache/lookup_error"
	CacheStoreError  Kind = "cache/store_error"
)

// Transient wraps a recoverable error with its taxonomy kind. Layers retry on
// sight of a *Transient; once a retry budget is exhausted the layer returns
// the *Transient itself rather than unwrapping it, so the caller one level up
// can see the original kind.
type Transient struct {
	Kind Kind
	Err  error
}

func (e *Transient) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Transient) Unwrap() error { return e.Err }

// Permanent wraps a terminal error with its taxonomy kind and a UI-safe
// message. Message must never contain raw LLM response content.
type Permanent struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Permanent) Error() string {
	if e.Err == nil {
		return string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
}

func (e *Permanent) Unwrap() error { return e.Err }

func NewTransient(kind Kind, err error) *Transient {
	return &Transient{Kind: kind, Err: err}
}

func NewPermanent(kind Kind, message string, err error) *Permanent {
	return &Permanent{Kind: kind, Message: message, Err: err}
}

// PermanentKind reports whether err (or something it wraps) is a *Permanent,
// and if so, its Kind.
func PermanentKind(err error) (Kind, bool) {
	var p *Permanent
	if stderrors.As(err, &p) {
		return p.Kind, true
	}
	return "", false
}

// TransientKind reports whether err (or something it wraps) is a *Transient,
// and if so, its Kind.
func TransientKind(err error) (Kind, bool) {
	var t *Transient
	if stderrors.As(err, &t) {
		return t.Kind, true
	}
	return "", false
}
