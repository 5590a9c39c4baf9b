package config

import (
	"os"
	"testing"
)

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Bus.BaudRate != 19200 {
		t.Fatalf("BaudRate = %d, want 19200", cfg.Bus.BaudRate)
	}
	if cfg.Bus.RCUAddr != 0x14 || cfg.Bus.MasterAddr != 0x24 {
		t.Fatalf("addresses = (0x%02X, 0x%02X), want (0x14, 0x24)", cfg.Bus.RCUAddr, cfg.Bus.MasterAddr)
	}
}

func TestLoadConfigFallsBackOnMissingFile(t *testing.T) {
	cfg := LoadConfig("/nonexistent/path/does-not-exist.yaml")
	want := DefaultConfig()
	if cfg.Bus.PortPath != want.Bus.PortPath {
		t.Fatalf("PortPath = %q, want default %q", cfg.Bus.PortPath, want.Bus.PortPath)
	}
}

func TestLoadConfigParsesYAML(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "rcuctl-*.yaml")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	_, err = f.WriteString("bus:\n  port_path: /dev/ttyRCU0\n  baud_rate: 9600\n")
	if err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	f.Close()

	cfg := LoadConfig(f.Name())
	if cfg.Bus.PortPath != "/dev/ttyRCU0" {
		t.Fatalf("PortPath = %q, want /dev/ttyRCU0", cfg.Bus.PortPath)
	}
	if cfg.Bus.BaudRate != 9600 {
		t.Fatalf("BaudRate = %d, want 9600", cfg.Bus.BaudRate)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("RCU_PORT", "/dev/ttyOverride")
	t.Setenv("RCU_BAUD", "4800")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Bus.PortPath != "/dev/ttyOverride" {
		t.Fatalf("PortPath = %q, want /dev/ttyOverride", cfg.Bus.PortPath)
	}
	if cfg.Bus.BaudRate != 4800 {
		t.Fatalf("BaudRate = %d, want 4800", cfg.Bus.BaudRate)
	}
}
