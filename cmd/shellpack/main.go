// Package main is the entry point for the shellpack CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/moxforge/shellpack/cmd/shellpack/commands"
	"github.com/moxforge/shellpack/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Execute(ctx)
	stop()
	os.Exit(errors.ExitCode(err))
}
