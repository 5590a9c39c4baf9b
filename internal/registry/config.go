package registry

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk parameter configuration document format from
// spec.md §6.1: a top-level map keyed by logical pump name, each value
// carrying the bus parameters plus a register list. Byte-valued wire
// constants are authored as YAML integers (0x14 parses fine under
// yaml.v3) and decoded into bytes by BusParams().
type Document map[string]PumpProfile

// PumpProfile is one named bus profile within a Document.
type PumpProfile struct {
	BaudRate   int             `yaml:"baudrate"`
	BitMode    int             `yaml:"bit_mode"`
	Parity     string          `yaml:"parity"`
	CmdData    int             `yaml:"cmd_data"`
	MasterAddr int             `yaml:"master_addr"`
	RCUAddr    int             `yaml:"rcu_addr"`
	Ack        int             `yaml:"ack"`
	Enq        int             `yaml:"enq"`
	Nak        int             `yaml:"nak"`
	Etx        int             `yaml:"etx"`
	Registers  []RegisterEntry `yaml:"registers"`
}

// RegisterEntry is one human-authored register description.
type RegisterEntry struct {
	Index     int             `yaml:"index"`
	Name      string          `yaml:"name"`
	Size      int             `yaml:"size"`
	Factor    float64         `yaml:"factor"`
	Unit      string          `yaml:"unit"`
	Writable  bool            `yaml:"writable"`
	Menu      string          `yaml:"menu"`
	BitFields []BitFieldEntry `yaml:"bit_fields"`
}

// BitFieldEntry is one human-authored bitfield description nested
// under a RegisterEntry.
type BitFieldEntry struct {
	Name      string         `yaml:"name"`
	Mask      int            `yaml:"mask"`
	SortOrder int            `yaml:"sort_order"`
	ValueMap  map[int]string `yaml:"value_map"`
}

// LoadDocument reads and parses a parameter configuration document.
func LoadDocument(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read config %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("registry: parse config %s: %w", path, err)
	}
	return doc, nil
}

// Definitions converts a PumpProfile's register entries into
// Definitions suitable for registry.New.
func (p PumpProfile) Definitions() []Definition {
	defs := make([]Definition, 0, len(p.Registers))
	for _, r := range p.Registers {
		d := Definition{
			Index:    byte(r.Index),
			Name:     r.Name,
			Size:     r.Size,
			Factor:   r.Factor,
			Unit:     r.Unit,
			Writable: r.Writable,
			Menu:     r.Menu,
		}
		for _, bf := range r.BitFields {
			vm := make(map[uint32]string, len(bf.ValueMap))
			for k, v := range bf.ValueMap {
				vm[uint32(k)] = v
			}
			d.Bitfields = append(d.Bitfields, Bitfield{
				Name:      bf.Name,
				Mask:      uint32(bf.Mask),
				SortOrder: bf.SortOrder,
				ValueMap:  vm,
			})
		}
		defs = append(defs, d)
	}
	return defs
}

// LoadRegistry loads the named pump profile from path and builds a
// Registry from it. If path is empty, it falls back to the built-in
// catalog (Default), in the same load-with-fallback style as the
// teacher's LoadConfig/DefaultConfig pair.
func LoadRegistry(path, pumpName string) (*Registry, error) {
	if path == "" {
		log.Printf("[registry] no configuration document given, using built-in catalog")
		return Default()
	}

	doc, err := LoadDocument(path)
	if err != nil {
		log.Printf("[registry] %v; falling back to built-in catalog", err)
		return Default()
	}

	profile, ok := doc[pumpName]
	if !ok {
		return nil, fmt.Errorf("registry: pump profile %q not found in %s", pumpName, path)
	}

	r, err := New(profile.Definitions())
	if err != nil {
		return nil, err
	}
	log.Printf("[registry] loaded %d parameter definitions for %q from %s", len(profile.Registers), pumpName, path)
	return r, nil
}

// BusParams are the wire-level constants a PumpProfile declares
// alongside its register list: addresses, control bytes, and the
// serial mode. No code in this module calls BusParams; the session's
// transport and addressing come from internal/config.
type BusParams struct {
	BaudRate   int
	BitMode    int
	Parity     string
	CmdData    byte
	MasterAddr byte
	RCUAddr    byte
	Ack        byte
	Enq        byte
	Nak        byte
	Etx        byte
}

// BusParams extracts the non-register fields of a PumpProfile.
func (p PumpProfile) BusParams() BusParams {
	return BusParams{
		BaudRate:   p.BaudRate,
		BitMode:    p.BitMode,
		Parity:     p.Parity,
		CmdData:    byte(p.CmdData),
		MasterAddr: byte(p.MasterAddr),
		RCUAddr:    byte(p.RCUAddr),
		Ack:        byte(p.Ack),
		Enq:        byte(p.Enq),
		Nak:        byte(p.Nak),
		Etx:        byte(p.Etx),
	}
}
