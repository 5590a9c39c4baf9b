// Package transport presents the ninth-bit-tagged serial channel the
// session state machine reads and writes. The address/data distinction
// is the public contract; how a given implementation actually produces
// it (parity switching over a real UART, or a plain in-memory buffer
// for tests) is hidden behind the Transport interface.
package transport

import (
	"errors"
	"time"

	"github.com/MackanT/NibeTester/internal/frame"
)

// TransportError wraps any failure to open, read, or write the
// underlying channel. It is always fatal at the Session level.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return "transport: " + e.Op + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// ErrTimeout is returned by Recv when no byte arrives within the
// requested timeout. It is not a TransportError: a read timeout is an
// expected, recoverable event the Session reacts to (see spec.md §4.4).
var ErrTimeout = errors.New("transport: recv timeout")

// Transport is the ninth-bit byte channel the Session owns exclusively.
// Implementations must preserve byte ordering and must never interpret
// payload content.
type Transport interface {
	// Send emits a single tagged byte, switching parity as needed.
	Send(b frame.Byte) error
	// SendMany coalesces consecutive Data bytes under one parity
	// setting and a single write; Address bytes are emitted singly.
	SendMany(bs []frame.Byte) error
	// Recv blocks for up to timeout waiting for the next byte. The tag
	// on the returned Byte is best-effort: hardware that cannot report
	// the ninth bit of a received byte always tags it Data, and the
	// Session applies its own inference heuristic (spec.md §4.4).
	Recv(timeout time.Duration) (frame.Byte, error)
	// Drain discards any bytes currently buffered for reading.
	Drain()
	// Close releases the underlying channel. Recv calls in flight
	// return a TransportError.
	Close() error
}
