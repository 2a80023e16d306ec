package smr

import "runtime"

// DefaultMaxThreads returns a reasonable reservation-array size for a
// [Manager] that has no better estimate of its peer count: four times the
// number of logical CPUs, which comfortably covers goroutine pools sized
// to GOMAXPROCS with room for transient extra registrants.
func DefaultMaxThreads() int {
	n := runtime.NumCPU() * 4
	if n < 8 {
		n = 8
	}

	return n
}
