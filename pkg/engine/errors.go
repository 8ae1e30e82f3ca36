package engine

import "errors"

var (
	// ErrUnknownMember is returned for a property or method the object does not have.
	ErrUnknownMember = errors.New("engine.unknown_member")

	// ErrBadArgument is returned when a member is called with arguments of the wrong kind.
	ErrBadArgument = errors.New("engine.bad_argument")

	// ErrNotFound is returned when a named child (sheet, range) does not exist.
	ErrNotFound = errors.New("engine.not_found")

	// ErrNotObject is returned by GetObject when the member is not an object.
	ErrNotObject = errors.New("engine.not_object")

	// ErrOpen is returned by Instance.Open when the document cannot be opened.
	ErrOpen = errors.New("engine.open_failed")

	// ErrClosed is returned by any call on a quit instance or a closed document.
	ErrClosed = errors.New("engine.closed")

	// ErrLaunch is returned when an instance cannot be started.
	ErrLaunch = errors.New("engine.launch_failed")
)
