// Package token implements the token sub-command, which obtains a bearer
// token with the configured credentials and reports where it came from.
package token

import (
	"context"
	"fmt"
	"time"

	"github.com/chirino/journal-service/internal/cmd/flags"
	"github.com/chirino/journal-service/internal/config"
	"github.com/chirino/journal-service/internal/docstore/auth"
	"github.com/urfave/cli/v3"
)

// Command returns the token sub-command.
func Command() *cli.Command {
	cfg := config.DefaultConfig()
	var show bool
	return &cli.Command{
		Name:  "token",
		Usage: "Obtain a bearer token and print its source and expiry",
		Flags: append(flags.Docstore(&cfg), &cli.BoolFlag{
			Name:        "show",
			Destination: &show,
			Usage:       "Also print the token itself",
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m, err := auth.NewManagerFromConfig(&cfg)
			if err != nil {
				return err
			}
			tok, err := m.Token(ctx)
			if err != nil {
				return err
			}
			cur := m.Current()
			fmt.Fprintf(cmd.Writer, "source:  %s\n", m.SourceName())
			fmt.Fprintf(cmd.Writer, "expires: %s (in %s)\n", cur.Expiry.UTC().Format(time.RFC3339), time.Until(cur.Expiry).Round(time.Second))
			if show {
				fmt.Fprintf(cmd.Writer, "token:   %s\n", tok)
			}
			return nil
		},
	}
}
