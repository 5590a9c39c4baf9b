package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MackanT/NibeTester/internal/monitor"
	"github.com/MackanT/NibeTester/internal/registry"
)

type monitorFlags struct {
	common commonFlags
	listen string
}

func newMonitorCmd() *cobra.Command {
	flags := &monitorFlags{}

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Serve a live websocket feed of decoded parameters",
		Long: `Start the session and a websocket server at --listen; every decoded
parameter is pushed to connected clients in real time. Runs until
interrupted.`,
		Example: `  rcuctl monitor --demo --listen :8090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(flags)
		},
	}

	addCommonFlags(cmd.Flags(), &flags.common)
	cmd.Flags().StringVar(&flags.listen, "listen", ":8090", "Address for the websocket server to listen on")

	return cmd
}

func runMonitor(flags *monitorFlags) error {
	ctrl, cfg, err := buildController(&flags.common)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	reg, err := registry.LoadRegistry(cfg.Registry.DocumentPath, cfg.Registry.PumpName)
	if err != nil {
		return newExitError(3, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	srv := monitor.New(flags.listen)
	ctrl.Start(ctx)

	go func() {
		callback := srv.Callback(func(idx byte) string { return paramName(reg, idx) })
		ctrl.RunForever(ctx, callback)
	}()

	return srv.Run(ctx)
}
