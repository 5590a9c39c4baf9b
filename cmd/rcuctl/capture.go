package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MackanT/NibeTester/internal/diaglog"
)

type captureFlags struct {
	common   commonFlags
	duration time.Duration
	outDir   string
}

func newCaptureCmd() *cobra.Command {
	flags := &captureFlags{}

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Record raw bus bytes with timestamps",
		Long: `Listen to the bus without running the protocol state machine, printing
every byte with the time it was observed. Useful for diagnosing framing
or checksum problems that the session's own logs summarize away.

With --out, the capture is written to a rotating CSV file instead of
stdout.`,
		Example: `  rcuctl capture --demo --duration 2s
  rcuctl capture --duration 30s --out ./captures`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(flags)
		},
	}

	addCommonFlags(cmd.Flags(), &flags.common)
	cmd.Flags().DurationVar(&flags.duration, "duration", 5*time.Second, "How long to capture")
	cmd.Flags().StringVar(&flags.outDir, "out", "", "Directory to write a rotating CSV capture to, instead of stdout")

	return cmd
}

func runCapture(flags *captureFlags) error {
	ctrl, _, err := buildController(&flags.common)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	samples, err := ctrl.DiagnosticCapture(context.Background(), flags.duration)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	if flags.outDir == "" {
		for _, s := range samples {
			fmt.Fprintf(os.Stdout, "%s %-8s 0x%02X\n", s.At.Format(time.RFC3339Nano), s.Byte.Tag, s.Byte.Value)
		}
		return nil
	}

	rec := diaglog.New(diaglog.Config{Enabled: true, Path: flags.outDir})
	defer rec.Close()
	for _, s := range samples {
		rec.Record(diaglog.Sample(s))
	}
	fmt.Fprintf(os.Stdout, "wrote %d samples to %s\n", len(samples), flags.outDir)
	return nil
}
