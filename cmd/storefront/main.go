package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/output"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{}
	if err := newRootCmd(c).ExecuteContext(ctx); err != nil {
		p := c.printer
		if p == nil {
			p = output.NewPrinter(os.Stdout, os.Stderr, output.ResolveColors(output.ColorAuto), false)
		}
		cliErr := toCLIError(err)
		p.FormatError(cliErr)
		stop()
		os.Exit(cliErr.ExitCode)
	}
}
