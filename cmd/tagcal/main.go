// Package main is the tagcal command.
package main

import (
	"context"
	"os"
	"os/signal"

	"go.viam.com/tagcal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.RunContext(ctx, os.Args); err != nil {
		cli.Errorf(os.Stderr, "%v", err)
		stop()
		os.Exit(1)
	}
}
