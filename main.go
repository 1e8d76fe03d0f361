package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	cmd := newRootCmd(newApp())
	err := cmd.ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}
