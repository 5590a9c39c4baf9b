package transport

import (
	"sync"
	"time"

	"github.com/MackanT/NibeTester/internal/frame"
)

// SimulatedTransport is an in-memory Transport used by tests, by the
// session's own test suite, and by the CLI's -demo mode. It can be
// seeded with a canned byte script that plays back as if it came from
// the bus master.
type SimulatedTransport struct {
	mu     sync.Mutex
	script []frame.Byte
	pos    int
	sent   []frame.Byte
	closed bool
}

// NewSimulated creates a SimulatedTransport preloaded with script as
// the bytes Recv will hand out, in order.
func NewSimulated(script []frame.Byte) *SimulatedTransport {
	return &SimulatedTransport{script: append([]frame.Byte(nil), script...)}
}

// Feed appends more bytes to the playback script, for tests or demo
// loops that generate traffic incrementally.
func (s *SimulatedTransport) Feed(bs []frame.Byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = append(s.script, bs...)
}

// Sent returns every byte the Session has emitted so far, in order.
func (s *SimulatedTransport) Sent() []frame.Byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]frame.Byte(nil), s.sent...)
}

// Send implements Transport.
func (s *SimulatedTransport) Send(b frame.Byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &TransportError{Op: "send", Err: errClosed}
	}
	s.sent = append(s.sent, b)
	return nil
}

// SendMany implements Transport.
func (s *SimulatedTransport) SendMany(bs []frame.Byte) error {
	for _, b := range bs {
		if err := s.Send(b); err != nil {
			return err
		}
	}
	return nil
}

// Recv implements Transport. If the script is exhausted it reports
// ErrTimeout after a token sleep (long enough to keep a Session.Run
// loop from busy-spinning a test to death, short enough not to slow
// tests down), which is sufficient for a cooperative single-threaded
// state machine under test.
func (s *SimulatedTransport) Recv(timeout time.Duration) (frame.Byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return frame.Byte{}, &TransportError{Op: "recv", Err: errClosed}
	}
	if s.pos >= len(s.script) {
		time.Sleep(time.Millisecond)
		return frame.Byte{}, ErrTimeout
	}
	b := s.script[s.pos]
	s.pos++
	return b, nil
}

// Drain implements Transport. On real hardware it discards bytes the
// UART has already buffered but nobody has read yet; it never affects
// bytes the other end hasn't transmitted. The pre-seeded script here
// models the master's *future* traffic, not bytes already sitting in
// a receive buffer, so there is nothing for Drain to discard: pos only
// advances as Recv is called. Tests that want to model buffered noise
// arriving ahead of a poll should Feed it and Recv it explicitly.
func (s *SimulatedTransport) Drain() {
	s.mu.Lock()
	defer s.mu.Unlock()
}

// Close implements Transport.
func (s *SimulatedTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var errClosed = simpleError("simulated transport closed")

type simpleError string

func (e simpleError) Error() string { return string(e) }
