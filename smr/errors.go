package smr

import "errors"

// Sentinel errors returned by smr operations.
//
// Callers should use [errors.Is] to check error types.
var (
	// ErrThreadLimitExceeded indicates [Manager.Register] was called after
	// every reservation slot configured via [Options.MaxThreads] is already
	// taken.
	//
	// Recovery: call [Manager.Unregister] from a thread that is done, or
	// construct the [Manager] with a larger MaxThreads.
	ErrThreadLimitExceeded = errors.New("smr: thread limit exceeded")

	// ErrNotRegistered indicates an operation was attempted with a thread
	// id that [Manager.Register] never issued, or that has already been
	// unregistered.
	//
	// This is a programming error.
	ErrNotRegistered = errors.New("smr: thread id not registered")

	// ErrInvalidInput indicates invalid [Options] were supplied to
	// [NewManager].
	ErrInvalidInput = errors.New("smr: invalid input")
)
