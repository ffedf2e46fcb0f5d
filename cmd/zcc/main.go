package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/arthur-debert/zcc/internal/cli"
	"github.com/arthur-debert/zcc/pkg/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		ui.NewConsoleLogger(os.Stderr, false).Error("%s", err)
		stop()
		os.Exit(1)
	}
}
