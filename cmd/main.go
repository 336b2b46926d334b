package main

import (
	"context"
	"os/signal"
	"syscall"

	"prinsight.ai/cli/internal/interfaces/cli"
	"prinsight.ai/cli/internal/interfaces/di"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cli.Execute(ctx, di.Build)
}
