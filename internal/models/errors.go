package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so callers can decide whether to retry,
// surface it, or treat it as caller fault.
type ErrorKind string

const (
	// KindValidation covers bad input shape or range. Caller fault, no retry.
	KindValidation ErrorKind = "validation"
	// KindAuthorization covers caller/principal mismatches. Caller fault, no retry.
	KindAuthorization ErrorKind = "authorization"
	// KindState covers illegal lifecycle transitions. Terminal for the operation.
	KindState ErrorKind = "state"
	// KindExternalData covers oracle/provider failures. Retryable with backoff.
	KindExternalData ErrorKind = "external_data"
	// KindResource covers pool liquidity shortfalls. Recoverable by operator action.
	KindResource ErrorKind = "resource"
)

// DomainError is a tagged failure. Every engine operation returns either a
// result or one of these; mock data is never substituted for a failure.
type DomainError struct {
	Kind ErrorKind
	Code string
	Msg  string
	Err  error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is matches two DomainErrors by code, so sentinel errors below work with
// errors.Is even when instances carry different messages.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func newSentinel(kind ErrorKind, code, msg string) *DomainError {
	return &DomainError{Kind: kind, Code: code, Msg: msg}
}

var (
	ErrInvalidInput          = newSentinel(KindValidation, "invalid_input", "input failed validation")
	ErrPremiumMismatch       = newSentinel(KindValidation, "premium_mismatch", "paid amount does not match premium")
	ErrMalformedParameters   = newSentinel(KindExternalData, "malformed_parameters", "trigger parameters could not be parsed")
	ErrUnauthorized          = newSentinel(KindAuthorization, "unauthorized", "caller is not the required principal")
	ErrNotFound              = newSentinel(KindState, "not_found", "entity does not exist")
	ErrAlreadyActive         = newSentinel(KindState, "already_active", "policy is already active")
	ErrPolicyNotActive       = newSentinel(KindState, "policy_not_active", "policy is not active")
	ErrPolicyExpired         = newSentinel(KindState, "policy_expired", "policy validity window has ended")
	ErrPolicyAlreadyClaimed  = newSentinel(KindState, "policy_already_claimed", "policy has already been claimed")
	ErrAmountExceedsCoverage = newSentinel(KindValidation, "amount_exceeds_coverage", "claim amount exceeds coverage")
	ErrClaimNotPending       = newSentinel(KindState, "claim_not_pending", "claim is not pending")
	ErrClaimNotApproved      = newSentinel(KindState, "claim_not_approved", "claim is not approved")
	ErrSourceUnavailable     = newSentinel(KindExternalData, "source_unavailable", "external data source unavailable")
	ErrSourceTimeout         = newSentinel(KindExternalData, "source_timeout", "external data source timed out")
	ErrIndeterminateState    = newSentinel(KindExternalData, "indeterminate_state", "observed data cannot decide the trigger")
	ErrInsufficientPoolFunds = newSentinel(KindResource, "insufficient_pool_funds", "pool balance cannot cover payout")
)

// WrapDomain attaches a cause to a sentinel, preserving its kind and code.
func WrapDomain(sentinel *DomainError, err error) *DomainError {
	return &DomainError{Kind: sentinel.Kind, Code: sentinel.Code, Msg: sentinel.Msg, Err: err}
}

// DomainMsg returns a copy of a sentinel with a more specific message.
func DomainMsg(sentinel *DomainError, msg string) *DomainError {
	return &DomainError{Kind: sentinel.Kind, Code: sentinel.Code, Msg: msg}
}

// KindOf extracts the taxonomy kind from any error, or "" for untagged errors.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
