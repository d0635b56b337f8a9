package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/bpcgraph/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.New(os.Stderr, cli.LogInfo).RootCommand().ExecuteContext(ctx)
	stop()

	code := cli.ExitCode(err)
	if err != nil && code != cli.ExitInterrupt && !cli.Reported(err) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}
