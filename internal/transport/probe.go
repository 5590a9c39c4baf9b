package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// ProbeCandidate is one baud/parity combination to try when the bus
// configuration is unknown. This mirrors the brute-force sweep the
// original tooling performed (scan_baudrate.py, test_9600_all_parity.py)
// before the 19200-baud, MARK/SPACE-parity convention was confirmed.
// It is a discovery helper only — the protocol core never calls it and
// always takes a fixed, already-known Mode.
type ProbeCandidate struct {
	BaudRate int
	Parity   serial.Parity
}

// DefaultProbeCandidates returns the baud/parity matrix worth trying
// against an unfamiliar bus, 19200/Mark first since that is this RCU's
// known-good configuration.
func DefaultProbeCandidates() []ProbeCandidate {
	bauds := []int{19200, 9600, 4800, 57600}
	parities := []serial.Parity{serial.MarkParity, serial.SpaceParity, serial.NoParity}
	out := make([]ProbeCandidate, 0, len(bauds)*len(parities))
	for _, b := range bauds {
		for _, p := range parities {
			out = append(out, ProbeCandidate{BaudRate: b, Parity: p})
		}
	}
	return out
}

// Probe opens portPath under each candidate in turn and listens for
// window of silence-free traffic, returning the first candidate that
// saw at least minBytes bytes. It is meant for interactive discovery
// tooling (cmd/rcuctl discover), not for the session's runtime path.
func Probe(portPath string, candidates []ProbeCandidate, listenFor time.Duration, minBytes int) (ProbeCandidate, error) {
	for _, c := range candidates {
		port, err := serial.Open(portPath, &serial.Mode{
			BaudRate: c.BaudRate,
			DataBits: 8,
			Parity:   c.Parity,
			StopBits: serial.OneStopBit,
		})
		if err != nil {
			continue
		}
		port.SetReadTimeout(listenFor)
		buf := make([]byte, 256)
		total := 0
		deadline := time.Now().Add(listenFor)
		for time.Now().Before(deadline) {
			n, _ := port.Read(buf)
			total += n
			if n == 0 {
				break
			}
		}
		port.Close()
		if total >= minBytes {
			return c, nil
		}
	}
	return ProbeCandidate{}, fmt.Errorf("transport: no candidate produced %d+ bytes on %s", minBytes, portPath)
}
