package catalog

import "errors"

var (
	ErrUserNotFound = errors.New("catalog.user_not_found")
	ErrAppNotFound  = errors.New("catalog.app_not_found")
	ErrAppExists    = errors.New("catalog.app_exists")
	ErrInvalidRole  = errors.New("catalog.invalid_role")
	ErrInvalidName  = errors.New("catalog.invalid_name")
	ErrUnknownStore = errors.New("catalog.unknown_store")
	ErrSeed         = errors.New("catalog.seed_failed")
)
