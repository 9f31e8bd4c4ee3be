package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	// The first signal kills a running picker and ends the session; a
	// second one gets the default behaviour.
	context.AfterFunc(ctx, stop)

	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pinentry-picker: %v\n", err)
		os.Exit(1)
	}
}
