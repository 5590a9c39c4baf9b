package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime)

	rootCmd := &cobra.Command{
		Use:   "rcuctl",
		Short: "RCU emulator control tool",
		Long: `rcuctl impersonates a passive Room Control Unit slave on a Nibe 360P
heat pump's 9-bit-framed RS-485 bus: it answers the pump's polls, decodes
parameter readings, and can enqueue writes, all from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newReadCmd())
	rootCmd.AddCommand(newCaptureCmd())
	rootCmd.AddCommand(newWriteCmd())
	rootCmd.AddCommand(newMonitorCmd())
	rootCmd.AddCommand(newDiscoverCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[rcuctl] error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error returned by a subcommand to the process
// exit codes documented for rcuctl: 0 success, 1 transport open
// failure, 2 collection timeout with partial data, 3 configuration
// error. The write subcommand also exits 1 when the master rejects the
// write and 2 when it times out, discover exits 1 when no candidate
// shows traffic, and any error without its own code exits 1.
func exitCodeFor(err error) int {
	switch e := err.(type) {
	case *exitError:
		return e.code
	default:
		return 1
	}
}

// exitError carries a specific process exit code alongside the
// wrapped error, since cobra's RunE only gives us an error value.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func newExitError(code int, err error) error {
	return &exitError{code: code, err: err}
}
