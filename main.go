package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/chirino/journal-service/internal/cmd/doc"
	"github.com/chirino/journal-service/internal/cmd/serve"
	"github.com/chirino/journal-service/internal/cmd/token"
	"github.com/urfave/cli/v3"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:    "journal-service",
		Usage:   "Document-store backend for the journal and assistant app",
		Version: version,
		Commands: []*cli.Command{
			serve.Command(),
			doc.Command(),
			token.Command(),
		},
	}
	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal("journal-service failed", "err", err)
	}
}
