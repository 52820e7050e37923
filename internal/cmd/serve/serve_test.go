package serve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/chirino/journal-service/internal/config"
	"github.com/chirino/journal-service/internal/docstore/auth"
	"github.com/chirino/journal-service/internal/model"
	"github.com/chirino/journal-service/internal/testutil/testdocstore"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) (*Server, *testdocstore.Server) {
	t.Helper()
	docs := testdocstore.New(t)

	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeTesting
	cfg.Endpoint = docs.Endpoint()
	cfg.ProjectID = testdocstore.ProjectID
	cfg.CacheType = "local"
	cfg.TokenWarmInterval = time.Minute
	cfg.ManagementListener.Port = 0

	ctx := config.WithContext(context.Background(), &cfg)
	ctx = auth.WithContext(ctx, auth.NewManager(auth.StaticSource("test-token")))
	srv, err := StartServer(ctx, &cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, docs
}

func get(t *testing.T, srv *Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d%s", srv.Running.Port, path))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestStartServer(t *testing.T) {
	srv, docs := startTestServer(t)

	code, _ := get(t, srv, "/health")
	require.Equal(t, http.StatusOK, code)

	code, _ = get(t, srv, "/ready")
	require.Equal(t, http.StatusOK, code)

	// The loaded store is wrapped with metrics and reaches the fake.
	ctx := context.Background()
	_, err := srv.Store.CreateActionItem(ctx, "u1", model.NewActionItem{Description: "Buy milk"})
	require.NoError(t, err)
	require.Len(t, docs.Paths("users/u1/action_items"), 1)

	code, body := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `journal_store_latency_seconds_count{operation="create_action_item"`)
	require.Contains(t, body, "journal_docstore_request_duration_seconds")
}

func TestStartServerRejectsBadMetricsLabels(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MetricsLabels = "not-a-pair"
	_, err := StartServer(context.Background(), &cfg)
	require.ErrorContains(t, err, "invalid --metrics-labels")
}
