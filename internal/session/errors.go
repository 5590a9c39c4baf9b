package session

import "errors"

// Errors returned by RequestWrite (synchronously) and by a write job's
// completion channel (asynchronously), per spec.md §7. ErrBusNoisy is
// returned by neither: three consecutive checksum failures are reported
// through Session.OnBusNoisy.
var (
	ErrNotWritable   = errors.New("session: parameter is not writable")
	ErrOutOfRange    = errors.New("session: value outside the parameter's declared range")
	ErrWritePending  = errors.New("session: a write is already in flight")
	ErrWriteTimeout  = errors.New("session: write timed out waiting for the master")
	ErrWriteRejected = errors.New("session: master rejected the write with NAK")
	ErrBusNoisy      = errors.New("session: three consecutive checksum failures")
)
