package main

import (
	"fmt"

	"github.com/MackanT/NibeTester/internal/config"
	"github.com/MackanT/NibeTester/internal/facade"
	"github.com/MackanT/NibeTester/internal/registry"
	"github.com/MackanT/NibeTester/internal/session"
	"github.com/MackanT/NibeTester/internal/transport"
)

// commonFlags are the flags shared by every subcommand that talks to a
// bus, real or simulated.
type commonFlags struct {
	configPath string
	portPath   string
	demo       bool
	passive    bool
}

func addCommonFlags(cmd flagAdder, f *commonFlags) {
	cmd.StringVar(&f.configPath, "config", "", "Path to rcuctl config file (YAML)")
	cmd.StringVar(&f.portPath, "port", "", "Override the serial port device")
	cmd.BoolVar(&f.demo, "demo", false, "Use an in-memory simulated bus instead of real hardware")
	cmd.BoolVar(&f.passive, "passive", false, "Listen only; never answer polls")
}

// flagAdder is satisfied by *pflag.FlagSet, letting addCommonFlags work
// against cmd.Flags() without importing pflag directly here.
type flagAdder interface {
	StringVar(p *string, name string, value string, usage string)
	BoolVar(p *bool, name string, value bool, usage string)
}

// buildController loads config and the parameter registry, opens the
// bus (real or --demo simulated), and returns a ready-to-Start façade.
func buildController(f *commonFlags) (*facade.Controller, *config.Config, error) {
	cfg := config.LoadConfig(f.configPath)
	if f.portPath != "" {
		cfg.Bus.PortPath = f.portPath
	}
	if f.passive {
		cfg.Bus.Passive = true
	}

	reg, err := registry.LoadRegistry(cfg.Registry.DocumentPath, cfg.Registry.PumpName)
	if err != nil {
		return nil, nil, newExitError(3, fmt.Errorf("load registry: %w", err))
	}

	var t transport.Transport
	if f.demo {
		t = transport.NewSimulated(nil)
	} else {
		t, err = transport.OpenSerial(transport.SerialConfig{
			PortPath: cfg.Bus.PortPath,
			BaudRate: cfg.Bus.BaudRate,
		})
		if err != nil {
			return nil, nil, newExitError(1, fmt.Errorf("open %s: %w", cfg.Bus.PortPath, err))
		}
	}

	sessionCfg := sessionConfigFrom(cfg)
	return facade.New(sessionCfg, reg, t), cfg, nil
}

func sessionConfigFrom(cfg *config.Config) session.Config {
	sc := session.DefaultConfig()
	sc.RCUAddr = byte(cfg.Bus.RCUAddr)
	sc.MasterAddr = byte(cfg.Bus.MasterAddr)
	sc.DefaultWidth = cfg.Timing.DefaultParamWidth
	if cfg.Bus.Passive {
		sc.Mode = session.ModePassive
	}
	sc.InterByteGap, sc.ResponseDeadline, sc.PostENQDelay, sc.PostWritePacketDelay = cfg.Timing.SessionTiming()
	return sc
}

func paramName(reg *registry.Registry, idx byte) string {
	if def, ok := reg.Definition(idx); ok {
		return def.Name
	}
	return fmt.Sprintf("0x%02X", idx)
}

func formatDecoded(d registry.Decoded) string {
	switch d.Kind {
	case registry.KindReal:
		if d.Unit != "" {
			return fmt.Sprintf("%.1f%s", d.R, d.Unit)
		}
		return fmt.Sprintf("%.1f", d.R)
	case registry.KindEnumerated:
		return d.Label
	case registry.KindBoolean:
		if d.B {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%d", d.I)
	}
}
