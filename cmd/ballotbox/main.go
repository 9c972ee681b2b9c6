package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ballotbox/internal/cli"
	perr "ballotbox/internal/platform/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(perr.ExitCode(err))
	}
}
