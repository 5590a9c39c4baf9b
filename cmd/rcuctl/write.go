package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MackanT/NibeTester/internal/session"
)

type writeFlags struct {
	common commonFlags
	index  int
	value  int64
}

func newWriteCmd() *cobra.Command {
	flags := &writeFlags{}

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Enqueue a single parameter write",
		Long: `Start the session, enqueue one write for the given index and value, and
report the master's response: WriteAccepted, WriteRejected (NAK), or
WriteTimeout.`,
		Example: `  rcuctl write --demo --index 0x0B --value 5
  rcuctl write --config /etc/rcuctl/config.yaml --index 11 --value 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.index < 0 || flags.index > 0xFF {
				return fmt.Errorf("--index must be between 0 and 255")
			}
			return runWrite(flags)
		},
	}

	addCommonFlags(cmd.Flags(), &flags.common)
	cmd.Flags().IntVar(&flags.index, "index", -1, "Parameter index to write (required)")
	cmd.Flags().Int64Var(&flags.value, "value", 0, "Raw value to write")

	return cmd
}

func runWrite(flags *writeFlags) error {
	ctrl, _, err := buildController(&flags.common)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ctrl.Start(ctx)

	outcome := make(chan error, 1)
	go func() { outcome <- ctrl.RequestWrite(byte(flags.index), flags.value) }()
	select {
	case err = <-outcome:
	case <-ctx.Done():
		err = session.ErrWriteTimeout
	}
	switch {
	case err == nil:
		fmt.Println("WriteAccepted")
		return nil
	case errors.Is(err, session.ErrWriteRejected):
		fmt.Println("WriteRejected")
		return newExitError(1, err)
	case errors.Is(err, session.ErrWriteTimeout):
		fmt.Println("WriteTimeout")
		return newExitError(2, err)
	default:
		return err
	}
}
