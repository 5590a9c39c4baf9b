package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MackanT/NibeTester/internal/transport"
)

type discoverFlags struct {
	portPath string
	listen   time.Duration
	minBytes int
}

func newDiscoverCmd() *cobra.Command {
	flags := &discoverFlags{}

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Probe a serial port for its baud rate and parity",
		Long: `Try a small matrix of baud rates and parity settings against the given
port, reporting the first combination that produces live traffic. This
is a best-effort discovery aid only; the session itself always uses a
fixed, already-known bus configuration.`,
		Example: `  rcuctl discover --port /dev/ttyUSB0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.portPath == "" {
				return fmt.Errorf("--port is required")
			}
			return runDiscover(flags)
		},
	}

	cmd.Flags().StringVar(&flags.portPath, "port", "", "Serial port device to probe (required)")
	cmd.Flags().DurationVar(&flags.listen, "listen", 2*time.Second, "How long to listen per candidate")
	cmd.Flags().IntVar(&flags.minBytes, "min-bytes", 4, "Minimum bytes observed to call a candidate a match")

	return cmd
}

func runDiscover(flags *discoverFlags) error {
	candidates := transport.DefaultProbeCandidates()
	match, err := transport.Probe(flags.portPath, candidates, flags.listen, flags.minBytes)
	if err != nil {
		return newExitError(1, err)
	}

	fmt.Printf("found traffic at %d baud, parity %v\n", match.BaudRate, match.Parity)
	return nil
}
