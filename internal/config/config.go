// Package config loads the host program's own configuration: the
// serial port, bus addressing, session deadlines, and the path to the
// parameter configuration document internal/registry consumes. It
// follows a LoadConfig/DefaultConfig/env-override pattern.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration for cmd/rcuctl.
type Config struct {
	Bus      BusConfig      `yaml:"bus" json:"bus"`
	Timing   TimingConfig   `yaml:"timing" json:"timing"`
	Registry RegistryConfig `yaml:"registry" json:"registry"`
}

// BusConfig describes the serial connection to the heat pump.
type BusConfig struct {
	PortPath   string `yaml:"port_path" json:"portPath"`
	BaudRate   int    `yaml:"baud_rate" json:"baudRate"`
	RCUAddr    int    `yaml:"rcu_addr" json:"rcuAddr"`
	MasterAddr int    `yaml:"master_addr" json:"masterAddr"`
	Passive    bool   `yaml:"passive" json:"passive"`
}

// TimingConfig holds the session deadlines spec.md §9 requires be
// configurable rather than hardcoded.
type TimingConfig struct {
	InterByteGapMs         int `yaml:"inter_byte_gap_ms" json:"interByteGapMs"`
	ResponseDeadlineMs     int `yaml:"response_deadline_ms" json:"responseDeadlineMs"`
	PostENQDelayMs         int `yaml:"post_enq_delay_ms" json:"postEnqDelayMs"`
	PostWritePacketDelayMs int `yaml:"post_write_packet_delay_ms" json:"postWritePacketDelayMs"`
	DefaultParamWidth      int `yaml:"default_param_width" json:"defaultParamWidth"`
}

// RegistryConfig locates the human-editable parameter document.
type RegistryConfig struct {
	DocumentPath string `yaml:"document_path" json:"documentPath"`
	PumpName     string `yaml:"pump_name" json:"pumpName"`
}

// DefaultConfig returns the built-in defaults: /dev/ttyUSB0 at 19200
// baud, the addresses and deadlines from spec.md §3/§4.4, and no
// external parameter document (the built-in catalog is used instead).
func DefaultConfig() *Config {
	return &Config{
		Bus: BusConfig{
			PortPath:   "/dev/ttyUSB0",
			BaudRate:   19200,
			RCUAddr:    0x14,
			MasterAddr: 0x24,
			Passive:    false,
		},
		Timing: TimingConfig{
			InterByteGapMs:         50,
			ResponseDeadlineMs:     500,
			PostENQDelayMs:         150,
			PostWritePacketDelayMs: 200,
			DefaultParamWidth:      2,
		},
		Registry: RegistryConfig{
			DocumentPath: "",
			PumpName:     "nibe360p",
		},
	}
}

// LoadConfig reads path as YAML over the defaults; a missing or
// unparsable file falls back to DefaultConfig.
func LoadConfig(path string) *Config {
	cfg := DefaultConfig()
	if path == "" {
		cfg.applyEnvOverrides()
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[config] no config at %s, using defaults", path)
		cfg.applyEnvOverrides()
		return cfg
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("[config] error parsing %s: %v, using defaults", path, err)
		cfg = DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg
	}
	log.Printf("[config] loaded from %s", path)
	cfg.applyEnvOverrides()
	return cfg
}

// applyEnvOverrides reads environment variables and overrides config
// values. Supported: RCU_PORT, RCU_BAUD, RCU_ADDR, RCU_MASTER_ADDR,
// RCU_PASSIVE, RCU_REGISTRY_DOC, RCU_PUMP_NAME.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RCU_PORT"); v != "" {
		c.Bus.PortPath = v
	}
	if v := os.Getenv("RCU_BAUD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Bus.BaudRate = n
		}
	}
	if v := os.Getenv("RCU_ADDR"); v != "" {
		if n, err := strconv.ParseInt(v, 0, 16); err == nil {
			c.Bus.RCUAddr = int(n)
		}
	}
	if v := os.Getenv("RCU_MASTER_ADDR"); v != "" {
		if n, err := strconv.ParseInt(v, 0, 16); err == nil {
			c.Bus.MasterAddr = int(n)
		}
	}
	if v := os.Getenv("RCU_PASSIVE"); v != "" {
		c.Bus.Passive = v == "1" || v == "true" || v == "yes"
	}
	if v := os.Getenv("RCU_REGISTRY_DOC"); v != "" {
		c.Registry.DocumentPath = v
	}
	if v := os.Getenv("RCU_PUMP_NAME"); v != "" {
		c.Registry.PumpName = v
	}
}

// SessionTiming converts the millisecond fields into time.Durations for
// internal/session.Config.
func (t TimingConfig) SessionTiming() (interByteGap, response, postENQ, postWrite time.Duration) {
	return time.Duration(t.InterByteGapMs) * time.Millisecond,
		time.Duration(t.ResponseDeadlineMs) * time.Millisecond,
		time.Duration(t.PostENQDelayMs) * time.Millisecond,
		time.Duration(t.PostWritePacketDelayMs) * time.Millisecond
}
