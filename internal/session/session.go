// Package session implements the RCU's protocol logic: recognizing its
// own address on the poll, emitting ACK or ENQ, receiving and
// validating data packets, running the write handshake, and enforcing
// response-time deadlines (spec.md §4.4). It is the only component
// that calls Transport.Send; internal/facade owns the worker goroutine
// that drives it.
package session

import (
	"time"

	"github.com/MackanT/NibeTester/internal/frame"
	"github.com/MackanT/NibeTester/internal/registry"
	"github.com/MackanT/NibeTester/internal/store"
	"github.com/MackanT/NibeTester/internal/transport"
)

// Mode selects whether the session answers polls (spec.md behavior) or
// only listens, per the passive_listen.py behavior carried forward in
// SPEC_FULL.md §10.
type Mode int

const (
	ModeActive Mode = iota
	ModePassive
)

// State is one of the named session states from spec.md §3/§4.4.
type State int

const (
	StateIdle State = iota
	StatePolledRead
	StatePolledWrite // WRITE_PENDING: own address seen with a write queued
	StateReceiving
	StateWriting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePolledRead:
		return "POLLED(read)"
	case StatePolledWrite:
		return "POLLED(write)"
	case StateReceiving:
		return "RECEIVING"
	case StateWriting:
		return "WRITING"
	default:
		return "UNKNOWN"
	}
}

// Config carries every timing and addressing parameter as a
// constructor argument rather than a package constant, per the Open
// Question in spec.md §9.
type Config struct {
	RCUAddr      byte
	MasterAddr   byte
	DefaultWidth int // width assumed for indices the registry does not know
	Mode         Mode

	// InterByteGap bounds how long the session waits for the byte that
	// confirms or refutes a pending 0x00 poll lead.
	InterByteGap time.Duration
	// ResponseDeadline bounds how long the session waits for the
	// master's data packet after emitting ACK.
	ResponseDeadline time.Duration
	// PostENQDelay bounds how long the session waits for the master's
	// ACK of its ENQ; must be at least 100ms and below the master's own
	// timeout (spec.md §4.4).
	PostENQDelay time.Duration
	// PostWritePacketDelay bounds how long the session waits for the
	// master's ACK/NAK after it sends the write packet.
	PostWritePacketDelay time.Duration
	// RecvPollInterval is the timeout passed to Transport.Recv while
	// idling for the next poll lead.
	RecvPollInterval time.Duration
}

// DefaultConfig returns the timing values observed in the original bus
// captures (spec.md §4.4): a post-ENQ delay of 150ms (above the 100ms
// floor), a 200ms post-write-packet delay, and a 500ms response
// deadline.
func DefaultConfig() Config {
	return Config{
		RCUAddr:              frame.RCUAddr,
		MasterAddr:           frame.MasterAddr,
		DefaultWidth:         2,
		Mode:                 ModeActive,
		InterByteGap:         50 * time.Millisecond,
		ResponseDeadline:     500 * time.Millisecond,
		PostENQDelay:         150 * time.Millisecond,
		PostWritePacketDelay: 200 * time.Millisecond,
		RecvPollInterval:     200 * time.Millisecond,
	}
}

// writeJob is one queued write request, in flight from
// facade.RequestWrite through to the session's write handshake.
type writeJob struct {
	Index byte
	Size  int
	Raw   uint32
	done  chan error
}

// Session is the RCU-side protocol state machine. One Session owns one
// Transport exclusively (spec.md §5); it is not safe for concurrent use
// beyond the single worker goroutine that calls Run plus the Enqueue
// method any caller may use to request a write.
type Session struct {
	cfg        Config
	transport  transport.Transport
	reg        *registry.Registry
	store      *store.Store
	callback   func(store.Entry)
	onBusNoisy func()

	state              State
	consecutiveChkErrs int
	pendingWrite       *writeJob
	writeCh            chan *writeJob
}

// New builds a Session. callback, if non-nil, is invoked on the worker
// goroutine for every successfully decoded parameter, in decode order
// (used by RunForever); it may be nil for one-shot reads that only
// consult the Store.
func New(cfg Config, t transport.Transport, reg *registry.Registry, st *store.Store, callback func(store.Entry)) *Session {
	return &Session{
		cfg:       cfg,
		transport: t,
		reg:       reg,
		store:     st,
		callback:  callback,
		state:     StateIdle,
		writeCh:   make(chan *writeJob, 1),
	}
}

// OnBusNoisy registers a callback invoked when three consecutive
// checksum failures occur (spec.md §7's BusNoisy condition).
func (s *Session) OnBusNoisy(fn func()) { s.onBusNoisy = fn }

// State reports the session's current state, for diagnostics.
func (s *Session) State() State { return s.state }

// Enqueue queues a single write request. It returns ErrWritePending if
// the single queue slot of spec.md §5 is already taken by a write the
// session has not yet picked up; the session runs one write handshake
// at a time. Range and writability
// validation happens in internal/facade before Enqueue is called, per
// the synchronous NotWritable/OutOfRange contract of spec.md §4.6.
func (s *Session) Enqueue(idx byte, size int, raw uint32) (<-chan error, error) {
	done := make(chan error, 1)
	job := &writeJob{Index: idx, Size: size, Raw: raw, done: done}
	select {
	case s.writeCh <- job:
		return done, nil
	default:
		return nil, ErrWritePending
	}
}

func (s *Session) recvWithin(deadline time.Time) (frame.Byte, error) {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return frame.Byte{}, transport.ErrTimeout
	}
	return s.transport.Recv(remaining)
}
