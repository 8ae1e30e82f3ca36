package coordinator

import (
	"errors"
	"time"

	"github.com/dmitrymomot/sheetpool/pkg/slotpool"
)

// Kind classifies a failure.
type Kind uint8

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindResourceExhausted
	KindLoadFailed
	KindMissingValue
	KindBadRequest
	KindConflict
	KindTooManyRequests
)

var kindNames = [...]string{
	KindInternal:          "internal",
	KindUnauthorized:      "unauthorized",
	KindForbidden:         "forbidden",
	KindNotFound:          "not_found",
	KindResourceExhausted: "resource_exhausted",
	KindLoadFailed:        "load_failed",
	KindMissingValue:      "missing_value",
	KindBadRequest:        "bad_request",
	KindConflict:          "conflict",
	KindTooManyRequests:   "too_many_requests",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Error is returned by every coordinator operation.
type Error struct {
	Kind   Kind
	Reason string
	// RetryAfter is set for KindTooManyRequests.
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Reason + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

func fail(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// KindOf returns the Kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ReasonOf returns the client-facing reason of err.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return "internal error"
}

// Client-facing reasons.
const (
	reasonUnauthorized       = "unauthorized"
	reasonUserMissing        = "user missing"
	reasonInvalidCredentials = "invalid credentials"
	reasonTooManyAttempts    = "too many login attempts"
	reasonForbidden          = "forbidden"
	reasonAdminRequired      = "admin required"
	reasonNotFound           = "not found"
	reasonFileNotFound       = "file not found"
	reasonMissingAppName     = "missing app name"
	reasonInvalidNames       = "invalid names"
	reasonSheetRangeRequired = "sheet and range required"
	reasonValueRequired      = "value required"
	reasonStorage            = "storage error"
	reasonInternal           = "internal error"
)

// poolError maps slot pool failures onto the taxonomy.
func poolError(err error) *Error {
	switch {
	case errors.Is(err, slotpool.ErrResourceExhausted):
		return fail(KindResourceExhausted, "no available excel instances", err)
	case errors.Is(err, slotpool.ErrLoadFailed):
		return fail(KindLoadFailed, "failed to open workbook", err)
	case errors.Is(err, slotpool.ErrNoSession):
		return fail(KindNotFound, "no active session", err)
	case errors.Is(err, slotpool.ErrNoDocument):
		return fail(KindNotFound, "no workbook loaded", err)
	case errors.Is(err, slotpool.ErrSheetNotFound):
		return fail(KindNotFound, "sheet not found", err)
	case errors.Is(err, slotpool.ErrRangeNotFound):
		return fail(KindNotFound, "range not found", err)
	case errors.Is(err, slotpool.ErrRestartFailed):
		return fail(KindInternal, "failed to restart excel instance", err)
	case errors.Is(err, slotpool.ErrClosed):
		return fail(KindResourceExhausted, "pool is shutting down", err)
	case errors.Is(err, slotpool.ErrEngine):
		return fail(KindInternal, "excel operation failed", err)
	}
	return fail(KindInternal, reasonInternal, err)
}
