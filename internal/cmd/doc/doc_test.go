package doc

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/chirino/journal-service/internal/docstore/query"
	"github.com/chirino/journal-service/internal/docstore/value"
	"github.com/chirino/journal-service/internal/testutil/testdocstore"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestParseWhere(t *testing.T) {
	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		in   string
		want *query.FieldFilter
	}{
		{"completed=eq:false", &query.FieldFilter{Path: "completed", Op: query.Equal, Value: value.Bool(false)}},
		{"installs=>=:10", &query.FieldFilter{Path: "installs", Op: query.GreaterThanOrEqual, Value: value.Int(10)}},
		{"status=in:[\"completed\",\"failed\"]", &query.FieldFilter{Path: "status", Op: query.In, Value: value.Strings([]string{"completed", "failed"})}},
		{"name=eq:YouTube", &query.FieldFilter{Path: "name", Op: query.Equal, Value: value.String("YouTube")}},
		{"created_at=<:2024-05-01T00:00:00Z", &query.FieldFilter{Path: "created_at", Op: query.LessThan, Value: value.Timestamp(ts)}},
		{"due_at=null:", &query.FieldFilter{Path: "due_at", Op: query.IsNull, Value: value.Null()}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			f, err := ParseWhere(tc.in)
			require.NoError(t, err)
			got := f.(*query.FieldFilter)
			require.Equal(t, tc.want.Path, got.Path)
			require.Equal(t, tc.want.Op, got.Op)
			require.True(t, tc.want.Value.Equal(got.Value), "got %s", got.Value)
		})
	}

	for _, bad := range []string{"novalue", "=eq:1", "a=like:x", "a=in:3"} {
		_, err := ParseWhere(bad)
		require.Error(t, err, bad)
	}
}

func TestParseOrder(t *testing.T) {
	f, d := ParseOrder("created_at:desc")
	require.Equal(t, "created_at", f)
	require.Equal(t, query.Descending, d)
	f, d = ParseOrder("installs")
	require.Equal(t, "installs", f)
	require.Equal(t, query.Ascending, d)
}

func runDoc(t *testing.T, srv *testdocstore.Server, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := Command()
	cmd.Writer = &out
	for _, sub := range cmd.Commands {
		sub.Writer = &out
	}
	root := &cli.Command{Name: "journal-service", Commands: []*cli.Command{cmd}, Writer: &out}
	base := []string{"journal-service", "doc",
		"--emulator-host", strings.TrimPrefix(strings.TrimSuffix(srv.Endpoint(), "/v1"), "http://"),
		"--project-id", testdocstore.ProjectID,
	}
	require.NoError(t, root.Run(context.Background(), append(base, args...)))
	return out.String()
}

func TestDocCommands(t *testing.T) {
	srv := testdocstore.New(t)
	for i, name := range []string{"a", "b", "c"} {
		srv.Put("users/u1/action_items/"+name, value.NewFields().
			Set("description", value.String("item "+name)).
			Set("completed", value.Bool(i == 1)).
			Set("rank", value.Int(int64(i))))
	}

	t.Run("get", func(t *testing.T) {
		out := runDoc(t, srv, "get", "--jq", ".fields.description", "users/u1/action_items/b")
		require.Equal(t, "\"item b\"\n", out)
	})

	t.Run("query", func(t *testing.T) {
		out := runDoc(t, srv, "query", "--parent", "users/u1",
			"--where", "completed=eq:false", "--order", "rank:desc", "action_items")
		var docs []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &docs))
		require.Len(t, docs, 2)
		require.Equal(t, "c", docs[0]["id"])
		require.Equal(t, "a", docs[1]["id"])
	})

	t.Run("query with jq", func(t *testing.T) {
		out := runDoc(t, srv, "query", "--parent", "users/u1", "--order", "rank",
			"--limit", "2", "--jq", "[.[].id]", "action_items")
		require.JSONEq(t, `["a","b"]`, out)
	})

	t.Run("count", func(t *testing.T) {
		out := runDoc(t, srv, "count", "--parent", "users/u1", "--where", "completed=eq:true", "action_items")
		require.Equal(t, "1\n", out)
	})
}
