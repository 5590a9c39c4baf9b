package registry

import (
	"math/bits"
	"sort"
)

// Kind distinguishes the shape of a Decoded value.
type Kind int

const (
	KindInteger Kind = iota
	KindReal
	KindEnumerated
	KindBoolean
)

// Decoded is the tagged-union decoded value described in spec.md §3.
type Decoded struct {
	Kind  Kind
	I     int64   // KindInteger, KindEnumerated (as int64)
	R     float64 // KindReal
	Unit  string  // KindReal
	Label string  // KindEnumerated, optional
	B     bool    // KindBoolean
}

// Field is one projected bitfield value, carrying the definition's
// declared sort order so callers can present fields in a stable order.
type Field struct {
	Name      string
	SortOrder int
	Value     Decoded
}

// Project converts a raw integer plus its Definition into either a
// single scaled Decoded value, or one Field per declared bitfield,
// sorted by SortOrder — a pure function of (raw, def), per spec.md §4.3
// and §8 invariant 4.
func Project(raw uint32, def Definition) (scalar *Decoded, fields []Field) {
	if def.HasBitfields() {
		fields = make([]Field, 0, len(def.Bitfields))
		for _, bf := range def.Bitfields {
			shift := bits.TrailingZeros32(bf.Mask)
			v := uint32(0)
			if shift < 32 {
				v = (raw & bf.Mask) >> uint(shift)
			}
			d := Decoded{Kind: KindInteger, I: int64(v)}
			if label, ok := bf.ValueMap[v]; ok {
				d.Kind = KindEnumerated
				d.Label = label
			}
			fields = append(fields, Field{Name: bf.Name, SortOrder: bf.SortOrder, Value: d})
		}
		sort.SliceStable(fields, func(i, j int) bool { return fields[i].SortOrder < fields[j].SortOrder })
		return nil, fields
	}

	signed := signExtend(raw, def.Size)
	if def.Factor > 1 {
		d := Decoded{Kind: KindReal, R: float64(signed) / def.Factor, Unit: def.Unit}
		return &d, nil
	}
	d := Decoded{Kind: KindInteger, I: signed}
	return &d, nil
}

// signExtend interprets raw as a two's-complement value at the
// declared width (the observed convention for multi-byte temperature
// channels per spec.md §4.3).
func signExtend(raw uint32, size int) int64 {
	switch size {
	case 1:
		return int64(int8(raw))
	case 2:
		return int64(int16(raw))
	default:
		return int64(raw)
	}
}
