package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zjy-dev/pretrain-smoke/cmd/pretrain-smoke/app"
	_ "github.com/zjy-dev/pretrain-smoke/internal/oracle/plugins" // Register oracle plugins
)

func main() {
	// Interrupting the CLI also kills the training script.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.NewSmokeCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
