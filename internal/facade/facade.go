// Package facade exposes the host-facing operations of spec.md §4.6: a
// single-shot read, continuous monitoring, enqueuing a write, cached
// lookups, and a raw diagnostic capture. Controller owns exactly one
// Session and the single background worker goroutine that drives it
// (spec.md §5); the other methods only touch the Store or the
// Session's write queue, except DiagnosticCapture, which reads the
// Transport directly, and Close, which closes it.
package facade

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/MackanT/NibeTester/internal/frame"
	"github.com/MackanT/NibeTester/internal/registry"
	"github.com/MackanT/NibeTester/internal/session"
	"github.com/MackanT/NibeTester/internal/store"
	"github.com/MackanT/NibeTester/internal/transport"
)

// ReadResult is what RunOnce returns: the observed snapshot plus
// whether every expected index was actually seen before the deadline.
type ReadResult struct {
	Values   map[byte]store.Entry
	Complete bool
}

// TimestampedByte is one raw bus byte captured by DiagnosticCapture.
type TimestampedByte struct {
	At   time.Time
	Byte frame.Byte
}

// Controller is the public façade. Construct with New, call Start once
// to launch the worker, then use RunOnce/RunForever/RequestWrite/Get
// from any goroutine.
type Controller struct {
	transport transport.Transport
	registry  *registry.Registry
	store     *store.Store
	session   *session.Session

	mu       sync.RWMutex
	callback func(store.Entry)

	started bool
}

// New builds a Controller around t and reg using cfg for the session's
// timing and addressing parameters.
func New(cfg session.Config, reg *registry.Registry, t transport.Transport) *Controller {
	st := store.New()
	c := &Controller{transport: t, registry: reg, store: st}
	c.session = session.New(cfg, t, reg, st, c.dispatch)
	c.session.OnBusNoisy(func() {
		log.Printf("[facade] bus noisy: three consecutive checksum failures")
	})
	return c
}

func (c *Controller) dispatch(e store.Entry) {
	c.mu.RLock()
	cb := c.callback
	c.mu.RUnlock()
	if cb != nil {
		cb(e)
	}
}

// Start launches the single background worker permitted by spec.md §5.
// It must be called once, before RunOnce/RunForever/RequestWrite. It
// returns immediately; the worker runs until ctx is cancelled or the
// Transport fails.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go func() {
		if err := c.session.Run(ctx); err != nil {
			log.Printf("[facade] worker stopped: %v", err)
		}
	}()
}

// RunOnce blocks until the Store has observed every index in expected
// at least once, or timeout elapses, whichever comes first. On timeout
// it returns whatever has accumulated with Complete=false (spec.md
// §4.4's collection-complete predicate, §5's deadline honoring).
func (c *Controller) RunOnce(ctx context.Context, expected []byte, timeout time.Duration) (ReadResult, error) {
	deadline := time.Now().Add(timeout)
	for {
		if c.store.ObservedAll(expected) {
			return ReadResult{Values: c.store.Snapshot(), Complete: true}, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ReadResult{Values: c.store.Snapshot(), Complete: false}, nil
		}
		select {
		case <-ctx.Done():
			return ReadResult{Values: c.store.Snapshot(), Complete: false}, ctx.Err()
		case <-time.After(remaining):
			return ReadResult{Values: c.store.Snapshot(), Complete: false}, nil
		case <-c.store.Changed():
		}
	}
}

// RunForever installs callback to be invoked on every successfully
// decoded parameter and blocks until ctx is cancelled.
func (c *Controller) RunForever(ctx context.Context, callback func(store.Entry)) error {
	c.mu.Lock()
	c.callback = callback
	c.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

// RequestWrite validates writability and range synchronously
// (ErrNotWritable, ErrOutOfRange), then enqueues the write and blocks
// for its outcome: nil on WriteAccepted, or ErrWriteTimeout /
// ErrWriteRejected / ErrWritePending.
func (c *Controller) RequestWrite(idx byte, raw int64) error {
	def, known := c.registry.Definition(idx)
	if !known || !def.Writable {
		return session.ErrNotWritable
	}
	if min, max, ok := c.registry.Range(idx); ok {
		if raw < min || raw > max {
			return session.ErrOutOfRange
		}
	}

	done, err := c.session.Enqueue(idx, def.Size, uint32(raw))
	if err != nil {
		return err
	}
	return <-done
}

// Get returns the last-observed scalar value for idx.
func (c *Controller) Get(idx byte) (registry.Decoded, bool) { return c.store.Get(idx) }

// GetBitfield returns the last-observed value of one named subfield.
func (c *Controller) GetBitfield(idx byte, name string) (registry.Decoded, bool) {
	return c.store.GetBitfield(idx, name)
}

// DiagnosticCapture reads raw bus bytes with timestamps for the given
// duration, bypassing the Session entirely (spec.md §4.6). It must not
// be called concurrently with Start, since the Transport is exclusive
// to one reader (spec.md §5) — it is meant for offline capture runs,
// the same role raw_dump.py plays in the original tooling.
func (c *Controller) DiagnosticCapture(ctx context.Context, duration time.Duration) ([]TimestampedByte, error) {
	deadline := time.Now().Add(duration)
	var out []TimestampedByte
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}
		b, err := c.transport.Recv(100 * time.Millisecond)
		if err != nil {
			if errors.Is(err, transport.ErrTimeout) {
				continue
			}
			return out, err
		}
		out = append(out, TimestampedByte{At: time.Now(), Byte: b})
	}
	return out, nil
}

// Close releases the underlying Transport.
func (c *Controller) Close() error { return c.transport.Close() }
