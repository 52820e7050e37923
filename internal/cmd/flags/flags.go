// Package flags holds the command-line flags shared by every command that
// talks to the document store.
package flags

import (
	"github.com/chirino/journal-service/internal/config"
	"github.com/urfave/cli/v3"
)

// Docstore returns the connection and credential flags, bound to cfg.
func Docstore(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "mode",
			Category:    "Service:",
			Sources:     cli.EnvVars("JOURNAL_MODE"),
			Destination: &cfg.Mode,
			Value:       cfg.Mode,
			Usage:       "Run mode (" + config.ModeProd + "|" + config.ModeTesting + "); testing skips the startup token check",
		},
		&cli.StringFlag{
			Name:        "project-id",
			Category:    "Document Store:",
			Sources:     cli.EnvVars("FIREBASE_PROJECT_ID", "GCP_PROJECT_ID"),
			Destination: &cfg.ProjectID,
			Usage:       "Project ID; defaults to the service account's project_id",
		},
		&cli.StringFlag{
			Name:        "credentials-file",
			Category:    "Document Store:",
			Sources:     cli.EnvVars("GOOGLE_APPLICATION_CREDENTIALS"),
			Destination: &cfg.CredentialsFile,
			Usage:       "Service account JSON key file; falls back to the metadata server",
		},
		&cli.StringFlag{
			Name:        "emulator-host",
			Category:    "Document Store:",
			Sources:     cli.EnvVars("FIRESTORE_EMULATOR_HOST"),
			Destination: &cfg.EmulatorHost,
			Usage:       "host:port of a local emulator; uses a fixed token",
		},
		&cli.StringFlag{
			Name:        "endpoint",
			Category:    "Document Store:",
			Sources:     cli.EnvVars("JOURNAL_FIRESTORE_ENDPOINT"),
			Destination: &cfg.Endpoint,
			Value:       cfg.Endpoint,
			Usage:       "REST endpoint base URL",
		},
		&cli.StringFlag{
			Name:        "database-id",
			Category:    "Document Store:",
			Sources:     cli.EnvVars("JOURNAL_FIRESTORE_DATABASE"),
			Destination: &cfg.DatabaseID,
			Value:       cfg.DatabaseID,
			Usage:       "Database ID",
		},
		&cli.DurationFlag{
			Name:        "request-timeout",
			Category:    "Document Store:",
			Sources:     cli.EnvVars("JOURNAL_REQUEST_TIMEOUT"),
			Destination: &cfg.RequestTimeout,
			Value:       cfg.RequestTimeout,
			Usage:       "Bound for one document-store request",
		},
		&cli.DurationFlag{
			Name:        "token-timeout",
			Category:    "Document Store:",
			Sources:     cli.EnvVars("JOURNAL_TOKEN_TIMEOUT"),
			Destination: &cfg.TokenTimeout,
			Value:       cfg.TokenTimeout,
			Usage:       "Bound for one token exchange",
		},
	}
}
