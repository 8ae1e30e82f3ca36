package session

import "errors"

var (
	// ErrSessionNotFound indicates the token is unknown, expired or logged out.
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrTokenExists is returned by Store.Create when the token is already taken.
	ErrTokenExists = errors.New("session.token_exists")

	// ErrTokenGeneration indicates the random source failed.
	ErrTokenGeneration = errors.New("session.token_generation_failed")

	// ErrEmptyIdentity is returned by Login for an empty identity.
	ErrEmptyIdentity = errors.New("session.empty_identity")

	// ErrUnknownStore is returned by NewStoreFromConfig for an unsupported store kind.
	ErrUnknownStore = errors.New("session.unknown_store")
)
