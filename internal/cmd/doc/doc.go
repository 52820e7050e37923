// Package doc implements the doc sub-command: ad hoc reads, queries and
// counts against the document store, printed as plain JSON.
package doc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chirino/journal-service/internal/cmd/flags"
	"github.com/chirino/journal-service/internal/config"
	"github.com/chirino/journal-service/internal/docstore"
	"github.com/chirino/journal-service/internal/docstore/auth"
	"github.com/chirino/journal-service/internal/docstore/query"
	"github.com/chirino/journal-service/internal/docstore/value"
	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v3"
)

// Command returns the doc sub-command.
func Command() *cli.Command {
	cfg := config.DefaultConfig()
	return &cli.Command{
		Name:  "doc",
		Usage: "Inspect documents in the store",
		Flags: flags.Docstore(&cfg),
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Print one document",
				ArgsUsage: "<path>",
				Flags:     []cli.Flag{jqFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runGet(ctx, cmd, &cfg)
				},
			},
			{
				Name:      "query",
				Usage:     "Print the documents of a collection that match the filters",
				ArgsUsage: "<collection>",
				Flags:     append(queryFlags(), jqFlag()),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runQuery(ctx, cmd, &cfg)
				},
			},
			{
				Name:      "count",
				Usage:     "Print how many documents of a collection match the filters",
				ArgsUsage: "<collection>",
				Flags:     queryFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runCount(ctx, cmd, &cfg)
				},
			},
		},
	}
}

func jqFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "jq",
		Usage: "jq expression applied to the output",
	}
}

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "parent",
			Usage: "Parent document path, e.g. users/<uid>",
		},
		&cli.StringSliceFlag{
			Name:  "where",
			Usage: "Filter as field=op:value, e.g. completed=eq:false or status=in:[\"completed\"] (repeatable)",
		},
		&cli.StringSliceFlag{
			Name:  "order",
			Usage: "Order as field or field:desc (repeatable)",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum documents to return (0 = no limit)",
		},
		&cli.IntFlag{
			Name:  "offset",
			Usage: "Documents to skip",
		},
	}
}

func newClient(cfg *config.Config) (*docstore.Client, error) {
	tokens, err := auth.NewManagerFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	projectID, err := cfg.ResolvedProjectID()
	if err != nil {
		return nil, err
	}
	return docstore.New(docstore.Options{
		Endpoint:       cfg.ResolvedEndpoint(),
		ProjectID:      projectID,
		DatabaseID:     cfg.DatabaseID,
		Tokens:         tokens,
		RequestTimeout: cfg.RequestTimeout,
	})
}

func singleArg(cmd *cli.Command, what string) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", fmt.Errorf("expected exactly one %s argument", what)
	}
	return cmd.Args().First(), nil
}

func runGet(ctx context.Context, cmd *cli.Command, cfg *config.Config) error {
	arg, err := singleArg(cmd, "path")
	if err != nil {
		return err
	}
	p, err := docstore.ParsePath(arg)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	d, err := client.Get(ctx, p)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("document %s not found", p)
	}
	return emit(cmd.Writer, documentJSON(d), cmd.String("jq"))
}

func runQuery(ctx context.Context, cmd *cli.Command, cfg *config.Config) error {
	parent, q, err := buildQuery(cmd)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	out := []any{}
	err = client.Stream(ctx, parent, q, func(d *docstore.Document) error {
		out = append(out, documentJSON(d))
		return nil
	})
	if err != nil {
		return err
	}
	return emit(cmd.Writer, out, cmd.String("jq"))
}

func runCount(ctx context.Context, cmd *cli.Command, cfg *config.Config) error {
	parent, q, err := buildQuery(cmd)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	n, err := client.RunAggregateCount(ctx, parent, q)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.Writer, n)
	return err
}

func buildQuery(cmd *cli.Command) (docstore.Path, *query.Query, error) {
	collection, err := singleArg(cmd, "collection")
	if err != nil {
		return nil, nil, err
	}
	parent, err := docstore.ParsePath(cmd.String("parent"))
	if err != nil {
		return nil, nil, err
	}
	q := query.From(collection)
	for _, w := range cmd.StringSlice("where") {
		f, err := ParseWhere(w)
		if err != nil {
			return nil, nil, err
		}
		q.Where(f)
	}
	for _, o := range cmd.StringSlice("order") {
		field, dir := ParseOrder(o)
		q.OrderBy(field, dir)
	}
	if n := cmd.Int("limit"); n > 0 {
		q.Limit(n)
	}
	if n := cmd.Int("offset"); n > 0 {
		q.Offset(n)
	}
	return parent, q, q.Err()
}

// ParseWhere parses field=op:value. The value is read as JSON when it
// parses, as an RFC 3339 timestamp when it looks like one, and as a plain
// string otherwise. IS_NULL takes no value.
func ParseWhere(s string) (query.Filter, error) {
	field, rest, ok := strings.Cut(s, "=")
	if !ok || field == "" {
		return nil, fmt.Errorf("invalid --where %q: expected field=op:value", s)
	}
	opText, raw, _ := strings.Cut(rest, ":")
	op, err := query.ParseOp(opText)
	if err != nil {
		return nil, fmt.Errorf("invalid --where %q: %w", s, err)
	}
	if op == query.IsNull {
		return query.Null(field)
	}
	return query.Field(field, op, parseLiteral(raw))
}

func parseLiteral(raw string) value.Value {
	var x any
	if err := json.Unmarshal([]byte(raw), &x); err == nil {
		if v, err := value.FromJSON(x); err == nil {
			if s, ok := v.AsString(); ok {
				return stringOrTimestamp(s)
			}
			return v
		}
	}
	return stringOrTimestamp(raw)
}

func stringOrTimestamp(s string) value.Value {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return value.Timestamp(t)
	}
	return value.String(s)
}

// ParseOrder parses field or field:asc|desc.
func ParseOrder(s string) (string, query.Direction) {
	field, dir, _ := strings.Cut(s, ":")
	if strings.EqualFold(dir, "desc") {
		return field, query.Descending
	}
	return field, query.Ascending
}

func documentJSON(d *docstore.Document) map[string]any {
	return map[string]any{
		"path":       d.Path().String(),
		"id":         d.ID(),
		"createTime": d.CreateTime,
		"updateTime": d.UpdateTime,
		"fields":     value.FieldsToJSON(d.Fields),
	}
}

// emit writes v as indented JSON, or each result of the jq expression when
// one is given.
func emit(w io.Writer, v any, expr string) error {
	if expr == "" {
		return writeJSON(w, v)
	}
	jq, err := gojq.Parse(expr)
	if err != nil {
		return fmt.Errorf("invalid --jq expression: %w", err)
	}
	// gojq only accepts plain JSON types, so round trip through encoding/json.
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return err
	}
	iter := jq.Run(input)
	for {
		out, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := out.(error); ok {
			return fmt.Errorf("jq: %w", err)
		}
		if err := writeJSON(w, out); err != nil {
			return err
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
