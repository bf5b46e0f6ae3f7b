// Package main is the entry point for the socket server binary. In Go every
// executable program must define package main and a main() function, while
// libraries use other package names.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lowkeyarhan/Socket-P-assignment/internal/config"
	"github.com/lowkeyarhan/Socket-P-assignment/internal/dispatch"
	"github.com/lowkeyarhan/Socket-P-assignment/internal/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand builds the single-command CLI surface: positional
// [port] [host] [max_threads] with defaults applied downstream by
// config.New (spec §6).
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "server [port] [host] [max_threads]",
		Short:         "Raw-socket HTTP/1.1 origin server",
		Args:          cobra.MaximumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServer,
	}
	return cmd
}

func runServer(cmd *cobra.Command, args []string) error {
	var port, host string
	var maxThreads int

	if len(args) > 0 {
		port = args[0]
	}
	if len(args) > 1 {
		host = args[1]
	}
	if len(args) > 2 {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid max_threads %q: %w", args[2], err)
		}
		maxThreads = n
	}

	cfg, err := config.New(port, host, maxThreads)
	if err != nil {
		return err
	}

	log := logging.New(os.Stdout)
	d := dispatch.New(cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil {
		return fmt.Errorf("bind failed: %w", err)
	}
	return nil
}
