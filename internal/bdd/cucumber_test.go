package bdd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chirino/journal-service/internal/cmd/serve"
	"github.com/chirino/journal-service/internal/config"
	"github.com/chirino/journal-service/internal/docstore/auth"
	"github.com/chirino/journal-service/internal/testutil/cucumber"
	"github.com/chirino/journal-service/internal/testutil/testdocstore"
	"github.com/cucumber/godog"
	"github.com/stretchr/testify/require"
)

func TestFeatures(t *testing.T) {
	docs := testdocstore.New(t)

	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeTesting
	cfg.Endpoint = docs.Endpoint()
	cfg.ProjectID = testdocstore.ProjectID
	cfg.CacheType = "none"
	cfg.ManagementListener.Port = 0
	ctx := config.WithContext(context.Background(), &cfg)
	ctx = auth.WithContext(ctx, auth.NewManager(auth.StaticSource("bdd-token")))

	srv, err := serve.StartServer(ctx, &cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	featureFiles, err := filepath.Glob(filepath.Join("features", "*.feature"))
	require.NoError(t, err)
	require.NotEmpty(t, featureFiles, "no feature files found")

	opts := cucumber.DefaultOptions()
	for _, arg := range os.Args[1:] {
		if arg == "-test.v=true" || arg == "-test.v" || arg == "-v" {
			opts.Format = "pretty"
		}
	}

	for _, featurePath := range featureFiles {
		name := strings.TrimSuffix(filepath.Base(featurePath), ".feature")
		t.Run(name, func(t *testing.T) {
			o := opts
			o.TestingT = t
			o.Paths = []string{featurePath}
			defer cucumber.ApplyReportOptions(&o, t.Name())()

			suite := cucumber.NewTestSuite()
			suite.ManagementURL = fmt.Sprintf("http://localhost:%d", srv.Running.Port)
			suite.TestingT = t
			suite.Extra[extraStore] = srv.Store
			suite.Extra[extraDocs] = docs
			suite.BeforeScenario = func() error {
				docs.Reset()
				return nil
			}

			status := godog.TestSuite{
				Name:                name,
				Options:             &o,
				ScenarioInitializer: suite.InitializeScenario,
			}.Run()
			if status != 0 {
				t.Fail()
			}
		})
	}
}
