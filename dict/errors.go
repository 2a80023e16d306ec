package dict

import "errors"

// Sentinel errors returned by dict-level construction and configuration.
//
// Per-key operations (Get/Put/Replace/Add/Remove) never return an error:
// absence is signalled by the "found" boolean, never by an error value
// (see package doc). Callers should use [errors.Is] against these.
var (
	// ErrInvalidInput indicates invalid [Options] were supplied when
	// constructing a table.
	ErrInvalidInput = errors.New("dict: invalid input")
)
