package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/MackanT/NibeTester/internal/facade"
	"github.com/MackanT/NibeTester/internal/registry"
	"github.com/MackanT/NibeTester/internal/store"
)

type readFlags struct {
	common  commonFlags
	timeout time.Duration
	indices []int
}

func newReadCmd() *cobra.Command {
	flags := &readFlags{}

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Collect one snapshot of parameter values from the bus",
		Long: `Start the session, wait until every requested parameter has been observed
at least once (or the timeout elapses), print the snapshot, and exit.

Exits 0 once every requested index was observed, or 2 with a partial
table if the timeout is reached first.`,
		Example: `  rcuctl read --demo --index 1 --index 2 --index 6
  rcuctl read --config /etc/rcuctl/config.yaml --timeout 10s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(flags)
		},
	}

	addCommonFlags(cmd.Flags(), &flags.common)
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 5*time.Second, "How long to wait for the collection to complete")
	cmd.Flags().IntSliceVar(&flags.indices, "index", nil, "Parameter index to wait for (repeatable); defaults to every known index")

	return cmd
}

func runRead(flags *readFlags) error {
	ctrl, cfg, err := buildController(&flags.common)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	reg, err := registry.LoadRegistry(cfg.Registry.DocumentPath, cfg.Registry.PumpName)
	if err != nil {
		return newExitError(3, err)
	}

	expected := make([]byte, 0, len(flags.indices))
	for _, i := range flags.indices {
		expected = append(expected, byte(i))
	}
	if len(expected) == 0 {
		for i := 0; i <= 0xFF; i++ {
			if _, ok := reg.Definition(byte(i)); ok {
				expected = append(expected, byte(i))
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctrl.Start(ctx)

	result, err := ctrl.RunOnce(ctx, expected, flags.timeout)
	if err != nil {
		return err
	}

	printSnapshot(reg, result)

	if !result.Complete {
		seen := 0
		for _, idx := range expected {
			if _, ok := result.Values[idx]; ok {
				seen++
			}
		}
		return newExitError(2, fmt.Errorf("collection timed out after %v with %d of %d indices observed", flags.timeout, seen, len(expected)))
	}
	return nil
}

func printSnapshot(reg *registry.Registry, result facade.ReadResult) {
	indices := make([]byte, 0, len(result.Values))
	for idx := range result.Values {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	w := os.Stdout
	fmt.Fprintf(w, "%-6s %-24s %-12s %s\n", "INDEX", "NAME", "VALUE", "WARNING")
	for _, idx := range indices {
		e := result.Values[idx]
		fmt.Fprintf(w, "0x%02X   %-24s %s\n", idx, paramName(reg, idx), entryValueString(e))
	}
}

func entryValueString(e store.Entry) string {
	if e.Scalar != nil {
		s := formatDecoded(*e.Scalar)
		if e.Warning != "" {
			return fmt.Sprintf("%-12s %s", s, e.Warning)
		}
		return s
	}
	parts := ""
	for i, f := range e.Fields {
		if i > 0 {
			parts += ", "
		}
		parts += fmt.Sprintf("%s=%s", f.Name, formatDecoded(f.Value))
	}
	return parts
}
