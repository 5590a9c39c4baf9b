package store

import (
	"testing"

	"github.com/MackanT/NibeTester/internal/registry"
)

func TestPutAndGetScalar(t *testing.T) {
	s := New()
	scalar := &registry.Decoded{Kind: registry.KindReal, R: -45.4, Unit: "°C"}
	s.Put(Entry{Index: 0x01, Scalar: scalar})

	got, ok := s.Get(0x01)
	if !ok {
		t.Fatal("Get(0x01) ok = false, want true")
	}
	if got.R != -45.4 {
		t.Fatalf("Get(0x01).R = %v, want -45.4", got.R)
	}
}

func TestGetMissingIndex(t *testing.T) {
	s := New()
	if _, ok := s.Get(0x7F); ok {
		t.Fatal("Get on an unobserved index should report ok=false")
	}
}

func TestGetBitfield(t *testing.T) {
	s := New()
	fields := []registry.Field{
		{Name: "Kompressor", Value: registry.Decoded{Kind: registry.KindEnumerated, Label: "On"}},
		{Name: "CP1", Value: registry.Decoded{Kind: registry.KindEnumerated, Label: "Off"}},
	}
	s.Put(Entry{Index: 0x13, Fields: fields})

	got, ok := s.GetBitfield(0x13, "Kompressor")
	if !ok || got.Label != "On" {
		t.Fatalf("GetBitfield(0x13, Kompressor) = (%+v, %v), want On/true", got, ok)
	}
	if _, ok := s.GetBitfield(0x13, "nonexistent"); ok {
		t.Fatal("GetBitfield for an unknown subfield should report ok=false")
	}
}

func TestLastWriteWins(t *testing.T) {
	s := New()
	s.Put(Entry{Index: 0x01, Scalar: &registry.Decoded{Kind: registry.KindReal, R: 1}})
	s.Put(Entry{Index: 0x01, Scalar: &registry.Decoded{Kind: registry.KindReal, R: 2}})

	got, _ := s.Get(0x01)
	if got.R != 2 {
		t.Fatalf("Get(0x01).R = %v, want 2 (last write should win)", got.R)
	}
}

func TestObservedAllRequiresEveryIndex(t *testing.T) {
	s := New()
	expected := []byte{0x01, 0x02, 0x06}
	if s.ObservedAll(expected) {
		t.Fatal("ObservedAll should be false before any values arrive")
	}
	s.Put(Entry{Index: 0x01, Scalar: &registry.Decoded{}})
	s.Put(Entry{Index: 0x02, Scalar: &registry.Decoded{}})
	if s.ObservedAll(expected) {
		t.Fatal("ObservedAll should still be false with one index missing")
	}
	s.Put(Entry{Index: 0x06, Scalar: &registry.Decoded{}})
	if !s.ObservedAll(expected) {
		t.Fatal("ObservedAll should be true once every expected index has arrived")
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	s := New()
	s.Put(Entry{Index: 0x01, Scalar: &registry.Decoded{Kind: registry.KindReal, R: 1}})

	snap := s.Snapshot()
	s.Put(Entry{Index: 0x01, Scalar: &registry.Decoded{Kind: registry.KindReal, R: 99}})

	if snap[0x01].Scalar.R != 1 {
		t.Fatalf("snapshot entry mutated after later Put: got %v, want 1", snap[0x01].Scalar.R)
	}
}

func TestUnknownParameterWarningIsPreserved(t *testing.T) {
	s := New()
	s.Put(Entry{Index: 0x7F, Scalar: &registry.Decoded{Kind: registry.KindInteger, I: 0x1234}, Warning: "UnknownParameter"})
	snap := s.Snapshot()
	if snap[0x7F].Warning != "UnknownParameter" {
		t.Fatalf("Warning = %q, want UnknownParameter", snap[0x7F].Warning)
	}
}
