package system_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/chirino/journal-service/internal/plugin/route/system"
	registryroute "github.com/chirino/journal-service/internal/registry/route"
)

func TestProbes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	require.NoError(t, registryroute.Mount(r))
	require.Contains(t, registryroute.Names(), "system")

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/health")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ok"`)

	w = get("/ready")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.JSONEq(t, `{"status":"waiting for token"}`, w.Body.String())

	system.MarkReady()
	require.True(t, system.Ready())
	w = get("/ready")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ready"`)
	require.Contains(t, w.Body.String(), `"since":`)

	require.Equal(t, http.StatusOK, get("/metrics").Code)
}
