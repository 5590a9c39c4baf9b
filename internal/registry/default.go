package registry

// DefaultDefinitions is the declarative built-in catalog, grounded on
// the Nibe 360P register table recovered from the original tooling
// (NIBE_360P_PARAMETERS in nibe360p_active.py), extended with the
// bitfield-carrying status register spec.md §8 scenario S3 exercises.
// A human-editable configuration document (internal/registry/config.go)
// can replace this catalog as a whole (its entries are not merged with
// these); it is never hardcoded into the session or façade.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Index: 0x00, Name: "CPU ID", Size: 1, Factor: 1},
		{Index: 0x01, Name: "Outdoor Temperature", Size: 2, Factor: 10, Unit: "°C"},
		{Index: 0x02, Name: "Hot Water Temperature", Size: 2, Factor: 10, Unit: "°C"},
		{Index: 0x03, Name: "Exhaust Air Temperature", Size: 2, Factor: 10, Unit: "°C"},
		{Index: 0x04, Name: "Extract Air Temperature", Size: 2, Factor: 10, Unit: "°C"},
		{Index: 0x05, Name: "Evaporator Temperature", Size: 2, Factor: 10, Unit: "°C"},
		{Index: 0x06, Name: "Supply Temperature", Size: 2, Factor: 10, Unit: "°C"},
		{Index: 0x07, Name: "Return Temperature", Size: 2, Factor: 10, Unit: "°C"},
		{Index: 0x08, Name: "Compressor Temperature", Size: 2, Factor: 10, Unit: "°C"},
		{Index: 0x09, Name: "Electric Heater Temperature", Size: 2, Factor: 10, Unit: "°C"},
		{Index: 0x0B, Name: "Heat Curve Slope", Size: 1, Factor: 1, Writable: true},
		{Index: 0x0C, Name: "Heat Curve Offset", Size: 1, Factor: 1, Unit: "°C", Writable: true},
		// Status/bitfield registers: the authoritative meaning comes
		// from the configuration document, not a hardcoded fallback
		// (spec.md §9 Open Question) — this is only the default when
		// no document overrides it.
		{
			Index: 0x13,
			Name:  "Compressor & Circulation Pump Status",
			Size:  1,
			Menu:  "status",
			Bitfields: []Bitfield{
				{Name: "Kompressor", Mask: 0x02, SortOrder: 0, ValueMap: map[uint32]string{0: "Off", 1: "On"}},
				{Name: "CP1", Mask: 0x40, SortOrder: 1, ValueMap: map[uint32]string{0: "Off", 1: "On"}},
				{Name: "CP2", Mask: 0x01, SortOrder: 2, ValueMap: map[uint32]string{0: "Off", 1: "On"}},
			},
		},
	}
}

// Default builds a Registry from DefaultDefinitions.
func Default() (*Registry, error) {
	return New(DefaultDefinitions())
}
