package slotpool

import "errors"

var (
	// ErrInstanceCreate is returned by New when an engine instance cannot be started.
	ErrInstanceCreate = errors.New("slotpool.instance_create_failed")

	// ErrResourceExhausted is returned when every slot is bound.
	ErrResourceExhausted = errors.New("slotpool.resource_exhausted")

	// ErrLoadFailed is returned when the engine cannot open a document. The slot is freed.
	ErrLoadFailed = errors.New("slotpool.load_failed")

	// ErrNoSession is returned when the session id is not bound to a slot.
	ErrNoSession = errors.New("slotpool.no_session")

	// ErrNoDocument is returned when the session's slot has no open document.
	ErrNoDocument = errors.New("slotpool.no_document")

	ErrSheetNotFound = errors.New("slotpool.sheet_not_found")
	ErrRangeNotFound = errors.New("slotpool.range_not_found")

	// ErrEngine wraps an engine failure during a read or write.
	ErrEngine = errors.New("slotpool.engine_error")

	// ErrRestartFailed is returned when a slot's instance could not be recreated.
	// The slot stays out of rotation until a later restart succeeds.
	ErrRestartFailed = errors.New("slotpool.restart_failed")

	ErrInvalidSlot = errors.New("slotpool.invalid_slot")
	ErrClosed      = errors.New("slotpool.closed")
	ErrInvalidSize = errors.New("slotpool.invalid_size")
)
