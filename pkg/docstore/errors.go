package docstore

import "errors"

var (
	ErrNotFound       = errors.New("docstore.not_found")
	ErrInvalidKey     = errors.New("docstore.invalid_key")
	ErrInvalidConfig  = errors.New("docstore.invalid_config")
	ErrUnknownBackend = errors.New("docstore.unknown_backend")

	ErrIO           = errors.New("docstore.io_failed")
	ErrAccessDenied = errors.New("docstore.access_denied")
	ErrUnavailable  = errors.New("docstore.unavailable")
	ErrTimeout      = errors.New("docstore.timeout")
	ErrCanceled     = errors.New("docstore.canceled")
	ErrLoadConfig   = errors.New("docstore.aws_config_failed")
)
