package docstore_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chirino/journal-service/internal/docstore"
	"github.com/chirino/journal-service/internal/docstore/query"
	"github.com/chirino/journal-service/internal/docstore/value"
	"github.com/chirino/journal-service/internal/testutil/testdocstore"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token       string
	err         error
	invalidated int
}

func (s *staticTokens) Token(context.Context) (string, error) { return s.token, s.err }

func (s *staticTokens) Invalidate() { s.invalidated++ }

func newClient(t *testing.T) (*docstore.Client, *testdocstore.Server, *staticTokens) {
	t.Helper()
	srv := testdocstore.New(t)
	tokens := &staticTokens{token: "test-token"}
	c, err := docstore.New(docstore.Options{
		Endpoint:       srv.Endpoint(),
		ProjectID:      testdocstore.ProjectID,
		Tokens:         tokens,
		RequestTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return c, srv, tokens
}

func TestGetMissingReturnsNil(t *testing.T) {
	c, srv, _ := newClient(t)
	doc, err := c.Get(context.Background(), docstore.Doc("users", "u1", "memories", "nope"))
	require.NoError(t, err)
	require.Nil(t, doc)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	require.Equal(t, "test-token", reqs[0].Token)
}

func TestUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c, srv, _ := newClient(t)
	p := docstore.Users("u1").Child("action_items", "abc")

	for _, desc := range []string{"Buy milk", "Buy milk today"} {
		_, err := c.Upsert(ctx, p, value.NewFields().Set("description", value.String(desc)))
		require.NoError(t, err)
	}

	require.Equal(t, []string{"users/u1/action_items/abc"}, srv.Paths("users/u1/action_items"))
	doc, err := c.Get(ctx, p)
	require.NoError(t, err)
	require.Equal(t, "abc", doc.ID())
	require.Equal(t, p, doc.Path())
	require.Equal(t, "Buy milk today", doc.Record().String("description"))
}

func TestUpsertWithMask(t *testing.T) {
	ctx := context.Background()
	c, srv, _ := newClient(t)
	p := docstore.Doc("emails", "e1")
	srv.Put("emails/e1", value.NewFields().
		Set("subject", value.String("hello")).
		Set("read", value.Bool(false)).
		Set("stale", value.Int(1)))

	doc, err := c.Upsert(ctx, p, value.NewFields().Set("read", value.Bool(true)), "read", "stale")
	require.NoError(t, err)
	require.Equal(t, "hello", doc.Record().String("subject"))
	require.True(t, doc.Record().Bool("read", false))
	require.False(t, doc.Record().Has("stale"))

	reqs := srv.Requests()
	require.Equal(t, []string{"read", "stale"}, reqs[len(reqs)-1].Query["updateMask.fieldPaths"])
}

func TestUpsertMergesIntoExistingDocument(t *testing.T) {
	ctx := context.Background()
	c, srv, _ := newClient(t)
	p := docstore.Users("u1").Child("memories", "m1")
	srv.Put("users/u1/memories/m1", value.NewFields().
		Set("content", value.String("Likes tea")).
		Set("user_review", value.Bool(false)))

	doc, err := c.Upsert(ctx, p, value.NewFields().Set("content", value.String("Likes green tea")))
	require.NoError(t, err)
	require.Equal(t, "Likes green tea", doc.Record().String("content"))
	require.False(t, doc.Record().Bool("user_review", true))

	reqs := srv.Requests()
	require.Equal(t, []string{"content"}, reqs[len(reqs)-1].Query["updateMask.fieldPaths"])
}

func TestUpdateRequiresExistingDocument(t *testing.T) {
	ctx := context.Background()
	c, srv, _ := newClient(t)
	p := docstore.Doc("emails", "e1")

	doc, err := c.Update(ctx, p, value.NewFields().Set("read", value.Bool(true)), "read")
	require.NoError(t, err)
	require.Nil(t, doc)
	_, ok := srv.Fields("emails/e1")
	require.False(t, ok)

	srv.Put("emails/e1", value.NewFields().Set("subject", value.String("hello")))
	doc, err = c.Update(ctx, p, value.NewFields().Set("read", value.Bool(true)), "read")
	require.NoError(t, err)
	require.Equal(t, "hello", doc.Record().String("subject"))
	require.True(t, doc.Record().Bool("read", false))
}

func TestDeleteMissingIsOK(t *testing.T) {
	c, _, _ := newClient(t)
	require.NoError(t, c.Delete(context.Background(), docstore.Doc("emails", "gone")))
}

func TestRejectsCollectionPathForDocumentCalls(t *testing.T) {
	c, srv, _ := newClient(t)
	_, err := c.Get(context.Background(), docstore.Doc("emails"))
	require.Error(t, err)
	require.Empty(t, srv.Requests())
}

func seedConversations(srv *testdocstore.Server, n int) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		id := string(rune('a' + i))
		srv.Put("users/u1/conversations/"+id, value.NewFields().
			Set("created_at", value.Timestamp(base.Add(time.Duration(i)*time.Hour))).
			Set("discarded", value.Bool(i%2 == 1)).
			Set("status", value.String("completed")))
	}
}

func TestRunQueryFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	c, srv, _ := newClient(t)
	seedConversations(srv, 5)

	q := query.From("conversations").
		Where(query.Eq("discarded", value.Bool(false))).
		OrderBy("created_at", query.Descending)
	docs, err := c.RunQuery(ctx, docstore.Users("u1"), q)
	require.NoError(t, err)

	var ids []string
	for _, d := range docs {
		ids = append(ids, d.ID())
	}
	require.Equal(t, []string{"e", "c", "a"}, ids)
}

func TestRunQueryEmptyResult(t *testing.T) {
	c, _, _ := newClient(t)
	docs, err := c.RunQuery(context.Background(), docstore.Users("u1"), query.From("memories"))
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestStreamSkipsUnreadableDocuments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"document": {"name": "projects/p/databases/(default)/documents/users/u1/conversations/a",
				"fields": {"created_at": {"timestampValue": "2024-05-01T12:00:00Z"}}}},
			{"document": {"name": "projects/p/databases/(default)/documents/users/u1/conversations/b",
				"fields": {"created_at": {"timestampValue": "2024-13-45"}}}},
			{"document": {"name": "projects/p/databases/(default)/documents/users/u1/conversations/c",
				"fields": {"created_at": {"timestampValue": "2024-05-02T12:00:00Z"}}}},
			{"readTime": "2024-05-03T00:00:00Z"}
		]`))
	})
	c, err := docstore.New(docstore.Options{Endpoint: newRawServer(t, mux), ProjectID: "p", Tokens: &staticTokens{token: "t"}})
	require.NoError(t, err)

	docs, err := c.RunQuery(context.Background(), docstore.Users("u1"), query.From("conversations"))
	require.NoError(t, err)
	var ids []string
	for _, d := range docs {
		ids = append(ids, d.ID())
	}
	require.Equal(t, []string{"a", "c"}, ids)
}

func TestStreamStopsOnCallbackError(t *testing.T) {
	c, srv, _ := newClient(t)
	seedConversations(srv, 3)
	stop := errors.New("stop")
	seen := 0
	err := c.Stream(context.Background(), docstore.Users("u1"), query.From("conversations"), func(*docstore.Document) error {
		seen++
		return stop
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 1, seen)
}

func TestQueryConstructionErrorIsReturned(t *testing.T) {
	c, srv, _ := newClient(t)
	_, err := c.RunQuery(context.Background(), nil, query.From("emails").Limit(-1))
	require.ErrorContains(t, err, "negative limit")
	require.Empty(t, srv.Requests())
}

func TestFetchPage(t *testing.T) {
	ctx := context.Background()
	c, srv, _ := newClient(t)
	seedConversations(srv, 4)
	q := query.From("conversations").OrderBy("created_at", query.Descending)

	t.Run("more available", func(t *testing.T) {
		page, err := c.FetchPage(ctx, docstore.Users("u1"), q, 3)
		require.NoError(t, err)
		require.Len(t, page.Items, 3)
		require.True(t, page.HasMore)
	})
	t.Run("exactly limit", func(t *testing.T) {
		page, err := c.FetchPage(ctx, docstore.Users("u1"), q, 4)
		require.NoError(t, err)
		require.Len(t, page.Items, 4)
		require.False(t, page.HasMore)
	})
	t.Run("does not modify the query", func(t *testing.T) {
		require.Equal(t, 0, q.LimitValue())
	})
}

func TestRunAggregateCount(t *testing.T) {
	ctx := context.Background()
	c, srv, _ := newClient(t)
	seedConversations(srv, 5)

	n, err := c.RunAggregateCount(ctx, docstore.Users("u1"),
		query.From("conversations").Where(query.Eq("discarded", value.Bool(true))))
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	reqs := srv.Requests()
	var body map[string]any
	require.NoError(t, json.Unmarshal(reqs[len(reqs)-1].Body, &body))
	require.Contains(t, body, "structuredAggregationQuery")
}

func newRawServer(t *testing.T, h http.Handler) string {
	t.Helper()
	hs := httptest.NewServer(h)
	t.Cleanup(hs.Close)
	return hs.URL + "/v1"
}

func TestRunAggregateCountUnparseableIsZero(t *testing.T) {
	srv := http.NewServeMux()
	srv.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"unexpected":true}`))
	})
	hs := newRawServer(t, srv)
	c, err := docstore.New(docstore.Options{Endpoint: hs, ProjectID: "p", Tokens: &staticTokens{token: "t"}})
	require.NoError(t, err)

	n, err := c.RunAggregateCount(context.Background(), nil, query.From("emails"))
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
}

func TestTransportErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("server error carries status and body", func(t *testing.T) {
		c, srv, _ := newClient(t)
		srv.FailNext(http.StatusInternalServerError)
		_, err := c.RunAggregateCount(ctx, nil, query.From("emails"))
		var te *docstore.TransportError
		require.ErrorAs(t, err, &te)
		require.Equal(t, http.StatusInternalServerError, te.StatusCode)
		require.Contains(t, te.Body, "injected failure")
		require.False(t, docstore.IsNotFound(err))
	})

	t.Run("unauthorized invalidates the token", func(t *testing.T) {
		c, srv, tokens := newClient(t)
		srv.FailNext(http.StatusUnauthorized)
		_, err := c.Get(ctx, docstore.Doc("emails", "e1"))
		require.Error(t, err)
		require.Equal(t, 1, tokens.invalidated)
	})

	t.Run("token failure skips the request", func(t *testing.T) {
		c, srv, tokens := newClient(t)
		tokens.err = errors.New("no credentials")
		_, err := c.Get(ctx, docstore.Doc("emails", "e1"))
		require.ErrorContains(t, err, "no credentials")
		require.Empty(t, srv.Requests())
	})
}
