package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	root "github.com/oasbridge/bridge/cmd/root"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(root.Execute(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]...))
}
