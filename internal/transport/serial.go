package transport

import (
	"log"
	"time"

	"go.bug.st/serial"

	"github.com/MackanT/NibeTester/internal/frame"
)

// SerialConfig configures the real hardware transport.
type SerialConfig struct {
	PortPath string
	BaudRate int // defaults to 19200 per spec.md §4.1

	// SettlingDelay is an optional pause after a parity switch and
	// before the write it guards, to give the line driver time to
	// settle. Must stay well under the master's response-deadline
	// budget (spec.md §4.1). Zero disables the delay.
	SettlingDelay time.Duration
}

// SerialTransport is the Transport implementation for real hardware,
// backed by go.bug.st/serial. It realizes the ninth bit by driving the
// port's parity setting to MARK before emitting an Address byte and to
// SPACE before emitting a Data byte.
type SerialTransport struct {
	cfg     SerialConfig
	port    serial.Port
	curMode serial.Parity
}

// OpenSerial opens the port at 19200 baud (or cfg.BaudRate if set), 8
// data bits, 1 stop bit, starting in SPACE parity.
func OpenSerial(cfg SerialConfig) (*SerialTransport, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 19200
	}
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.SpaceParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.PortPath, mode)
	if err != nil {
		return nil, &TransportError{Op: "open", Err: err}
	}
	if err := port.SetReadTimeout(200 * time.Millisecond); err != nil {
		port.Close()
		return nil, &TransportError{Op: "set-read-timeout", Err: err}
	}
	log.Printf("[transport] opened %s at %d baud", cfg.PortPath, cfg.BaudRate)
	return &SerialTransport{cfg: cfg, port: port, curMode: serial.SpaceParity}, nil
}

func (t *SerialTransport) parityFor(tag frame.Tag) serial.Parity {
	if tag == frame.Address {
		return serial.MarkParity
	}
	return serial.SpaceParity
}

func (t *SerialTransport) setParity(p serial.Parity) error {
	if p == t.curMode {
		return nil
	}
	if err := t.port.SetMode(&serial.Mode{
		BaudRate: t.cfg.BaudRate,
		DataBits: 8,
		Parity:   p,
		StopBits: serial.OneStopBit,
	}); err != nil {
		return err
	}
	t.curMode = p
	if t.cfg.SettlingDelay > 0 {
		time.Sleep(t.cfg.SettlingDelay)
	}
	return nil
}

// Send implements Transport.
func (t *SerialTransport) Send(b frame.Byte) error {
	if err := t.setParity(t.parityFor(b.Tag)); err != nil {
		return &TransportError{Op: "set-parity", Err: err}
	}
	if _, err := t.port.Write([]byte{b.Value}); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

// SendMany implements Transport. Consecutive Data bytes are coalesced
// under one SPACE parity switch and a single Write; Address bytes are
// flushed individually so each one gets its own MARK switch.
func (t *SerialTransport) SendMany(bs []frame.Byte) error {
	i := 0
	for i < len(bs) {
		if bs[i].Tag == frame.Address {
			if err := t.Send(bs[i]); err != nil {
				return err
			}
			i++
			continue
		}
		j := i
		buf := make([]byte, 0, len(bs)-i)
		for j < len(bs) && bs[j].Tag == frame.Data {
			buf = append(buf, bs[j].Value)
			j++
		}
		if err := t.setParity(serial.SpaceParity); err != nil {
			return &TransportError{Op: "set-parity", Err: err}
		}
		if _, err := t.port.Write(buf); err != nil {
			return &TransportError{Op: "write", Err: err}
		}
		i = j
	}
	return nil
}

// Recv implements Transport. The returned tag is always Data: standard
// UART hardware cannot surface the parity bit of a received byte, so
// address inference is left to the Session (spec.md §4.4).
func (t *SerialTransport) Recv(timeout time.Duration) (frame.Byte, error) {
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return frame.Byte{}, &TransportError{Op: "set-read-timeout", Err: err}
	}
	buf := make([]byte, 1)
	n, err := t.port.Read(buf)
	if err != nil {
		return frame.Byte{}, &TransportError{Op: "read", Err: err}
	}
	if n == 0 {
		return frame.Byte{}, ErrTimeout
	}
	return frame.DataByte(buf[0]), nil
}

// Drain implements Transport.
func (t *SerialTransport) Drain() {
	t.port.ResetInputBuffer()
}

// Close implements Transport.
func (t *SerialTransport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	return err
}
