package lookup

import "errors"

var (
	// ErrValidation marks a malformed request. The whole request fails.
	ErrValidation = errors.New("invalid lookup request")

	// ErrNotFound marks an identifier that resolves to no registered type.
	ErrNotFound = errors.New("not found")

	// ErrUnknownScope marks a scope name the entity does not expose.
	ErrUnknownScope = errors.New("unknown scope")
)
