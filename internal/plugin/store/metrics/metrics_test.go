package metrics

import (
	"context"
	"testing"

	"github.com/chirino/journal-service/internal/model"
	"github.com/chirino/journal-service/internal/registry/store"
	"github.com/chirino/journal-service/internal/security"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	store.JournalStore
	calls int
}

func (f *fakeStore) GetMemory(_ context.Context, uid, id string) (*model.Memory, error) {
	f.calls++
	return &model.Memory{ID: id}, nil
}

func TestWrapObservesLatency(t *testing.T) {
	security.InitMetrics(nil)
	inner := &fakeStore{}
	s := Wrap(inner)

	m, err := s.GetMemory(context.Background(), "u1", "m1")
	require.NoError(t, err)
	require.Equal(t, "m1", m.ID)
	require.Equal(t, 1, inner.calls)

	require.Equal(t, 1, testutil.CollectAndCount(security.StoreLatency, "journal_store_latency_seconds"))
}
