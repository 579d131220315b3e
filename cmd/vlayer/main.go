// Command vlayer inspects interception layers and records, replays and
// verifies touch input logs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/vlayer/internal/cli"
	"github.com/roach88/vlayer/internal/config"
	"github.com/roach88/vlayer/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitCommandError
	}

	shutdown, err := telemetry.Setup(ctx, env.OTelEndpoint)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("trace flush failed", "error", err)
		}
	}()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}
