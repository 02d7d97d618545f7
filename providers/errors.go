package providers

import (
	"errors"
	"fmt"
	"time"
)

// Kind sorts provider failures into the closed set the engine reasons about.
// Providers translate their own wire errors into one of these; nothing above
// the provider layer inspects provider-specific failures.
type Kind int

const (
	// KindAuth: credentials malformed or rejected. Not retried; the
	// operator has to fix the account.
	KindAuth Kind = iota
	// KindUnknownProvider: an account references a provider with no
	// implementation, or a record references an unknown account.
	KindUnknownProvider
	// KindUnsupported: the provider cannot serve this combination of record
	// type, creation or zone. A configuration mismatch, not a fault.
	KindUnsupported
	// KindRateLimited: the provider asked us to slow down. Retryable; may
	// carry the provider's own backoff hint.
	KindRateLimited
	// KindTransport: network-layer failure (dial, timeout, 5xx). Retryable.
	KindTransport
	// KindRecordConflict: remote state contradicts local assumptions, e.g.
	// several records where one is expected. Needs manual resolution.
	KindRecordConflict
	// KindNotFound: the record does not exist remotely. Not a failure on
	// its own: Update turns it into creation where the provider supports
	// that, or into KindUnsupported where it does not.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindUnknownProvider:
		return "unknown_provider"
	case KindUnsupported:
		return "unsupported"
	case KindRateLimited:
		return "rate_limited"
	case KindTransport:
		return "transport"
	case KindRecordConflict:
		return "record_conflict"
	case KindNotFound:
		return "not_found"
	default:
		return fmt.Sprintf("unknown<%d>", int(k))
	}
}

// Retryable reports whether failures of this kind may succeed on a later
// attempt within the same cycle.
func (k Kind) Retryable() bool {
	return k == KindRateLimited || k == KindTransport
}

// Error is the uniform failure shape every provider client produces.
type Error struct {
	Kind     Kind
	Provider string
	Op       string
	// RetryAfter carries the provider's backoff hint when it gave one
	// (Retry-After header and similar). Zero means no hint.
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Provider, e.Op, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Retryable() bool { return e.Kind.Retryable() }

// KindOf extracts the failure kind from any error produced by this package.
func KindOf(err error) (Kind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}

// IsRetryable reports whether err is a classified, transient provider
// failure. Unclassified errors are never retried.
func IsRetryable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}

func IsNotFound(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindNotFound
}

// HintedBackoff returns the provider's suggested backoff, or zero.
func HintedBackoff(err error) time.Duration {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.RetryAfter
	}
	return 0
}

func authError(provider, op string, err error) *Error {
	return &Error{Kind: KindAuth, Provider: provider, Op: op, Err: err}
}

func unsupportedError(provider, op string, err error) *Error {
	return &Error{Kind: KindUnsupported, Provider: provider, Op: op, Err: err}
}

func rateLimitedError(provider, op string, hint time.Duration, err error) *Error {
	return &Error{Kind: KindRateLimited, Provider: provider, Op: op, RetryAfter: hint, Err: err}
}

func transportError(provider, op string, err error) *Error {
	return &Error{Kind: KindTransport, Provider: provider, Op: op, Err: err}
}

func conflictError(provider, op string, err error) *Error {
	return &Error{Kind: KindRecordConflict, Provider: provider, Op: op, Err: err}
}

func notFoundError(provider, op string) *Error {
	return &Error{Kind: KindNotFound, Provider: provider, Op: op, Err: errors.New("record does not exist")}
}
