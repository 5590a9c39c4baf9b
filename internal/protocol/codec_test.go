package protocol

import (
	"errors"
	"testing"
)

type fakeLookup map[byte]int

func (f fakeLookup) Size(idx byte) (int, bool) {
	size, ok := f[idx]
	return size, ok
}

const (
	masterAddr = 0x24
	rcuAddr    = 0x14
)

func packet(sender byte, payload []byte) []byte {
	body := append([]byte{0xC0, 0x00, sender, byte(len(payload))}, payload...)
	return append(body, Checksum(body))
}

func TestChecksumRoundTrip(t *testing.T) {
	lookup := fakeLookup{0x01: 2}
	buf := packet(masterAddr, []byte{0x00, 0x01, 0xFF, 0xCB})
	pkt, err := Decode(buf, lookup, 2, masterAddr)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(pkt.Params) != 1 || pkt.Params[0].Raw != 0xFFCB {
		t.Fatalf("Params = %+v, want one record with raw 0xFFCB", pkt.Params)
	}
}

func TestDecodeSignedBigEndianValue(t *testing.T) {
	// 0xFFCB, read as big-endian int16, is -53; at factor 10 that is the
	// -5.3 °C worked example from spec.md §8. The codec only assembles
	// the raw unsigned value — sign interpretation is internal/registry's
	// job — so this test checks the raw assembly is big-endian.
	lookup := fakeLookup{0x01: 2}
	buf := packet(masterAddr, []byte{0x00, 0x01, 0xFF, 0xCB})
	pkt, err := Decode(buf, lookup, 2, masterAddr)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if pkt.Params[0].Raw != 0xFFCB {
		t.Fatalf("Raw = 0x%X, want 0xFFCB", pkt.Params[0].Raw)
	}
}

func TestDecodeMultipleParams(t *testing.T) {
	lookup := fakeLookup{0x01: 2, 0x0B: 1}
	buf := packet(masterAddr, []byte{0x00, 0x01, 0xFE, 0x3A, 0x00, 0x0B, 0x05})
	pkt, err := Decode(buf, lookup, 2, masterAddr)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(pkt.Params) != 2 {
		t.Fatalf("len(Params) = %d, want 2", len(pkt.Params))
	}
	if pkt.Params[0].Index != 0x01 || pkt.Params[0].Raw != 0xFE3A {
		t.Fatalf("Params[0] = %+v", pkt.Params[0])
	}
	if pkt.Params[1].Index != 0x0B || pkt.Params[1].Raw != 0x05 {
		t.Fatalf("Params[1] = %+v", pkt.Params[1])
	}
}

func TestDecodeUnknownIndexUsesDefaultWidth(t *testing.T) {
	lookup := fakeLookup{}
	buf := packet(masterAddr, []byte{0x00, 0x7F, 0x00, 0x2A})
	pkt, err := Decode(buf, lookup, 2, masterAddr)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(pkt.Params) != 1 || !pkt.Params[0].Unknown || pkt.Params[0].Size != 2 {
		t.Fatalf("Params = %+v, want one unknown 2-byte record", pkt.Params)
	}
	if pkt.Params[0].Raw != 0x2A {
		t.Fatalf("Raw = 0x%X, want 0x2A", pkt.Params[0].Raw)
	}
}

func TestDecodeRejectsBadChecksum(t *testing.T) {
	lookup := fakeLookup{0x01: 1}
	buf := packet(masterAddr, []byte{0x00, 0x01, 0x05})
	buf[len(buf)-1] ^= 0xFF // corrupt the checksum
	_, err := Decode(buf, lookup, 2, masterAddr)
	var chkErr *ChecksumError
	if !errors.As(err, &chkErr) {
		t.Fatalf("Decode error = %v, want *ChecksumError", err)
	}
}

func TestDecodeRejectsWrongSender(t *testing.T) {
	lookup := fakeLookup{0x01: 1}
	buf := packet(0x99, []byte{0x00, 0x01, 0x05})
	_, err := Decode(buf, lookup, 2, masterAddr)
	var addrErr *AddressingError
	if !errors.As(err, &addrErr) {
		t.Fatalf("Decode error = %v, want *AddressingError", err)
	}
}

func TestDecodeRejectsBadCmdByte(t *testing.T) {
	lookup := fakeLookup{0x01: 1}
	buf := packet(masterAddr, []byte{0x00, 0x01, 0x05})
	buf[0] = 0xAA
	_, err := Decode(buf, lookup, 2, masterAddr)
	var frameErr *FramingError
	if !errors.As(err, &frameErr) {
		t.Fatalf("Decode error = %v, want *FramingError", err)
	}
}

func TestDecodeRejectsShortPayload(t *testing.T) {
	lookup := fakeLookup{0x01: 2}
	// Declares LEN=4 (one 2-byte param) but only one value byte follows.
	body := []byte{0xC0, 0x00, masterAddr, 0x04, 0x00, 0x01, 0xFF}
	buf := append(body, Checksum(body))
	_, err := Decode(buf, lookup, 2, masterAddr)
	var frameErr *FramingError
	if !errors.As(err, &frameErr) {
		t.Fatalf("Decode error = %v, want *FramingError", err)
	}
}

func TestEncodeWriteRoundTrips(t *testing.T) {
	buf, err := EncodeWrite(rcuAddr, 0x0B, 1, 0x07)
	if err != nil {
		t.Fatalf("EncodeWrite: %v", err)
	}
	lookup := fakeLookup{0x0B: 1}
	pkt, err := Decode(buf, lookup, 2, rcuAddr)
	if err != nil {
		t.Fatalf("Decode(EncodeWrite output): %v", err)
	}
	if len(pkt.Params) != 1 || pkt.Params[0].Index != 0x0B || pkt.Params[0].Raw != 0x07 {
		t.Fatalf("Params = %+v, want one record {0x0B, 0x07}", pkt.Params)
	}
}

func TestEncodeWriteTwoByteValue(t *testing.T) {
	buf, err := EncodeWrite(rcuAddr, 0x01, 2, 0xFFCB)
	if err != nil {
		t.Fatalf("EncodeWrite: %v", err)
	}
	lookup := fakeLookup{0x01: 2}
	pkt, err := Decode(buf, lookup, 2, rcuAddr)
	if err != nil {
		t.Fatalf("Decode(EncodeWrite output): %v", err)
	}
	if pkt.Params[0].Raw != 0xFFCB {
		t.Fatalf("Raw = 0x%X, want 0xFFCB", pkt.Params[0].Raw)
	}
}

func TestBodyLength(t *testing.T) {
	n, err := BodyLength([]byte{0xC0, 0x00, masterAddr, 0x05})
	if err != nil {
		t.Fatalf("BodyLength: %v", err)
	}
	if n != 6 {
		t.Fatalf("BodyLength = %d, want 6", n)
	}
}
