// Command sdbx uploads and downloads end-to-end encrypted shares from the
// terminal, and runs an in-memory backend for local testing.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		prompter: newTerminalPrompter(os.Stdin, os.Stderr),
		progress: term.IsTerminal(int(os.Stderr.Fd())),
	}
	if err := a.command().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "sdbx:", err)
		os.Exit(1)
	}
}
