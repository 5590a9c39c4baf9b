package registry

import "testing"

func TestNewRejectsBadSize(t *testing.T) {
	_, err := New([]Definition{{Index: 0x01, Size: 3}})
	if err == nil {
		t.Fatal("expected error for size 3, got nil")
	}
}

func TestNewRejectsZeroMask(t *testing.T) {
	defs := []Definition{{
		Index: 0x13, Size: 1,
		Bitfields: []Bitfield{{Name: "broken", Mask: 0}},
	}}
	if _, err := New(defs); err == nil {
		t.Fatal("expected error for zero mask, got nil")
	}
}

func TestNewRejectsMaskTooWide(t *testing.T) {
	defs := []Definition{{
		Index: 0x13, Size: 1,
		Bitfields: []Bitfield{{Name: "broken", Mask: 0x100}},
	}}
	if _, err := New(defs); err == nil {
		t.Fatal("expected error for mask exceeding 1-byte width, got nil")
	}
}

func TestNewFillsDefaultRangeForWritable(t *testing.T) {
	r, err := New([]Definition{{Index: 0x0B, Size: 1, Writable: true}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	min, max, ok := r.Range(0x0B)
	if !ok {
		t.Fatal("expected a default range to be filled in for a writable 1-byte param")
	}
	if min != -128 || max != 127 {
		t.Fatalf("default signed 1-byte range = [%d, %d], want [-128, 127]", min, max)
	}
}

func TestNewKeepsExplicitRange(t *testing.T) {
	lo, hi := int64(0), int64(10)
	r, err := New([]Definition{{Index: 0x0C, Size: 1, Writable: true, Min: &lo, Max: &hi}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	min, max, ok := r.Range(0x0C)
	if !ok || min != 0 || max != 10 {
		t.Fatalf("Range = (%d, %d, %v), want (0, 10, true)", min, max, ok)
	}
}

func TestSizeAndWritableLookup(t *testing.T) {
	r, err := New([]Definition{
		{Index: 0x01, Size: 2},
		{Index: 0x0B, Size: 1, Writable: true},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if size, ok := r.Size(0x01); !ok || size != 2 {
		t.Fatalf("Size(0x01) = (%d, %v), want (2, true)", size, ok)
	}
	if _, ok := r.Size(0x7F); ok {
		t.Fatal("Size(0x7F) should be unknown")
	}
	if !r.Writable(0x0B) {
		t.Fatal("0x0B should be writable")
	}
	if r.Writable(0x01) {
		t.Fatal("0x01 should not be writable")
	}
}

func TestProjectSignedTemperature(t *testing.T) {
	// 0xFFCB as a two's-complement int16 is -53; divided by a factor of
	// 10 that is -5.3, the worked example from spec.md §8.
	def := Definition{Index: 0x01, Size: 2, Factor: 10, Unit: "°C"}
	scalar, fields := Project(0xFFCB, def)
	if fields != nil {
		t.Fatalf("expected no fields for a scalar definition, got %v", fields)
	}
	if scalar == nil || scalar.Kind != KindReal {
		t.Fatalf("expected a KindReal scalar, got %+v", scalar)
	}
	if scalar.R != -5.3 {
		t.Fatalf("R = %v, want -5.3", scalar.R)
	}
	if scalar.Unit != "°C" {
		t.Fatalf("Unit = %q, want °C", scalar.Unit)
	}
}

func TestProjectIntegerNoFactor(t *testing.T) {
	def := Definition{Index: 0x0B, Size: 1, Factor: 0}
	scalar, _ := Project(0x05, def)
	if scalar == nil || scalar.Kind != KindInteger || scalar.I != 5 {
		t.Fatalf("Project = %+v, want KindInteger 5", scalar)
	}
}

func TestProjectBitfields(t *testing.T) {
	def := Definition{
		Index: 0x13, Size: 1,
		Bitfields: []Bitfield{
			{Name: "Kompressor", Mask: 0x02, SortOrder: 0, ValueMap: map[uint32]string{0: "Off", 1: "On"}},
			{Name: "CP1", Mask: 0x40, SortOrder: 1, ValueMap: map[uint32]string{0: "Off", 1: "On"}},
			{Name: "CP2", Mask: 0x01, SortOrder: 2, ValueMap: map[uint32]string{0: "Off", 1: "On"}},
		},
	}
	scalar, fields := Project(0x43, def) // 0b0100_0011: CP2=1, Kompressor=1, CP1=1
	if scalar != nil {
		t.Fatalf("expected no scalar for a bitfield definition, got %+v", scalar)
	}
	if len(fields) != 3 {
		t.Fatalf("len(fields) = %d, want 3", len(fields))
	}
	want := []struct {
		name  string
		label string
	}{{"Kompressor", "On"}, {"CP1", "On"}, {"CP2", "On"}}
	for i, w := range want {
		if fields[i].Name != w.name {
			t.Fatalf("fields[%d].Name = %q, want %q", i, fields[i].Name, w.name)
		}
		if fields[i].Value.Kind != KindEnumerated || fields[i].Value.Label != w.label {
			t.Fatalf("fields[%d].Value = %+v, want label %q", i, fields[i].Value, w.label)
		}
	}
}

func TestProjectBitfieldSortOrder(t *testing.T) {
	// mask 0x38 over 0x1A isolates bits 3-5: (0x1A & 0x38) >> 3 = 3.
	def := Definition{
		Index: 0x14, Size: 1,
		Bitfields: []Bitfield{
			{Name: "second", Mask: 0x04, SortOrder: 1},
			{Name: "first", Mask: 0x38, SortOrder: 0},
		},
	}
	_, fields := Project(0x1A, def)
	if fields[0].Name != "first" || fields[0].Value.I != 3 {
		t.Fatalf("fields[0] = %+v, want first=3 sorted ahead of second", fields[0])
	}
	if fields[1].Name != "second" {
		t.Fatalf("fields[1].Name = %q, want second", fields[1].Name)
	}
}

func TestDefaultCatalogLoads(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if size, ok := r.Size(0x01); !ok || size != 2 {
		t.Fatalf("default catalog Size(0x01) = (%d, %v), want (2, true)", size, ok)
	}
	if _, ok := r.Size(0x7F); ok {
		t.Fatal("0x7F must stay unregistered in the default catalog so unknown-index decoding can be exercised")
	}
	if len(r.Bitfields(0x13)) != 3 {
		t.Fatalf("default catalog 0x13 bitfields = %d, want 3", len(r.Bitfields(0x13)))
	}
}
