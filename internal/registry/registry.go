// Package registry holds the immutable, process-wide catalog of
// parameter definitions: one-byte index to name, width, scaling,
// writability, range, and optional bitfield decomposition (spec.md
// §4.3). It is consulted by internal/protocol for widths and by
// internal/session for decoded-value projection before values reach
// internal/store.
package registry

import "fmt"

// Bitfield is a named sub-region of a register's raw integer.
type Bitfield struct {
	Name      string
	Mask      uint32
	SortOrder int
	ValueMap  map[uint32]string // optional integer->label
}

// Definition is an immutable parameter record.
type Definition struct {
	Index     byte
	Name      string
	Size      int // 1 or 2 bytes
	Factor    float64
	Unit      string
	Writable  bool
	Menu      string
	Min, Max  *int64
	Step      *int64
	Bitfields []Bitfield // non-empty => Factor is ignored (spec.md §3)
}

// HasBitfields reports whether value projection should go through the
// bitfield path instead of numeric scaling.
func (d Definition) HasBitfields() bool { return len(d.Bitfields) > 0 }

// Registry is an O(1)-lookup, immutable catalog of Definitions.
type Registry struct {
	defs map[byte]Definition
}

// New builds a Registry from defs, validating each one per spec.md
// §4.3. It returns an error naming the first invalid definition.
func New(defs []Definition) (*Registry, error) {
	m := make(map[byte]Definition, len(defs))
	for _, d := range defs {
		if err := validate(d); err != nil {
			return nil, fmt.Errorf("registry: index 0x%02X: %w", d.Index, err)
		}
		if d.Writable && d.Min == nil && d.Max == nil {
			lo, hi := signedRange(uint(d.Size * 8))
			d.Min, d.Max = &lo, &hi
		}
		m[d.Index] = d
	}
	return &Registry{defs: m}, nil
}

func validate(d Definition) error {
	if d.Size != 1 && d.Size != 2 {
		return fmt.Errorf("size must be 1 or 2, got %d", d.Size)
	}
	widthBits := uint(d.Size * 8)
	for _, bf := range d.Bitfields {
		if bf.Mask == 0 {
			return fmt.Errorf("bitfield %q: mask must be non-zero", bf.Name)
		}
		if bf.Mask>>widthBits != 0 {
			return fmt.Errorf("bitfield %q: mask 0x%X does not fit in %d bits", bf.Name, bf.Mask, widthBits)
		}
	}
	return nil
}

func signedRange(bits uint) (int64, int64) {
	max := int64(1)<<(bits-1) - 1
	min := -(int64(1) << (bits - 1))
	return min, max
}

// Size implements protocol.SizeLookup.
func (r *Registry) Size(idx byte) (int, bool) {
	d, ok := r.defs[idx]
	if !ok {
		return 0, false
	}
	return d.Size, true
}

// Definition returns the full definition for idx.
func (r *Registry) Definition(idx byte) (Definition, bool) {
	d, ok := r.defs[idx]
	return d, ok
}

// Writable reports whether idx is known and writable.
func (r *Registry) Writable(idx byte) bool {
	d, ok := r.defs[idx]
	return ok && d.Writable
}

// Bitfields returns idx's bitfield list, or nil if it has none.
func (r *Registry) Bitfields(idx byte) []Bitfield {
	d, ok := r.defs[idx]
	if !ok {
		return nil
	}
	return d.Bitfields
}

// Range returns idx's declared (min, max), if any.
func (r *Registry) Range(idx byte) (min, max int64, ok bool) {
	d, known := r.defs[idx]
	if !known || d.Min == nil || d.Max == nil {
		return 0, 0, false
	}
	return *d.Min, *d.Max, true
}
