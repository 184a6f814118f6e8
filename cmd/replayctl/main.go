package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/scharissis/coh3-replay-analyser/internal/cli"
	"github.com/scharissis/coh3-replay-analyser/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	if err := config.LoadDotEnv(".env"); err != nil {
		_, _ = fmt.Fprintf(errOut, "replayctl: %v\n", err)
		return cli.ExitFailure
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return cli.NewRunner(out, errOut).Run(ctx, args)
}
