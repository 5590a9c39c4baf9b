package protocol

import "fmt"

// FramingError means an unexpected byte appeared where the packet
// grammar required a specific one. It is always local: the session
// drops the in-flight packet and returns to IDLE without emitting.
type FramingError struct {
	Expected string
	Got      byte
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("protocol: framing error: expected %s, got 0x%02X", e.Expected, e.Got)
}

// AddressingError means a data packet arrived from a sender other than
// the configured master address. Treated like FramingError.
type AddressingError struct {
	Want, Got byte
}

func (e *AddressingError) Error() string {
	return fmt.Sprintf("protocol: addressing error: expected sender 0x%02X, got 0x%02X", e.Want, e.Got)
}

// ChecksumError means the XOR checksum over the packet body did not
// match the trailing CHK byte.
type ChecksumError struct {
	Want, Got byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("protocol: checksum mismatch: computed 0x%02X, packet says 0x%02X", e.Want, e.Got)
}
