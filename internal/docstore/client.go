// Package docstore is a client for the Firestore REST API: point reads,
// patch-style upserts, deletes, structured queries and count aggregations.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/journal-service/internal/config"
	"github.com/chirino/journal-service/internal/docstore/query"
	"github.com/chirino/journal-service/internal/docstore/value"
	"github.com/chirino/journal-service/internal/security"
)

// TokenSource supplies bearer tokens. *auth.Manager implements it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Options configures a Client.
type Options struct {
	Endpoint   string
	ProjectID  string
	DatabaseID string
	HTTPClient *http.Client
	Tokens     TokenSource
	// RequestTimeout bounds each request. Zero leaves only the caller's ctx.
	RequestTimeout time.Duration
}

// Client issues document-store requests. It is safe for concurrent use.
type Client struct {
	http    *http.Client
	tokens  TokenSource
	timeout time.Duration
	// root is the documents root URL, without a trailing slash.
	root string
	// name is the resource name prefix matching root.
	name string
}

func New(opts Options) (*Client, error) {
	if opts.ProjectID == "" {
		return nil, errors.New("docstore: project id is required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("docstore: token source is required")
	}
	endpoint := strings.TrimRight(opts.Endpoint, "/")
	if endpoint == "" {
		endpoint = config.DefaultEndpoint
	}
	db := opts.DatabaseID
	if db == "" {
		db = config.DefaultDatabaseID
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		http:    hc,
		tokens:  opts.Tokens,
		timeout: opts.RequestTimeout,
		root:    fmt.Sprintf("%s/projects/%s/databases/%s/documents", endpoint, url.PathEscape(opts.ProjectID), url.PathEscape(db)),
		name:    fmt.Sprintf("projects/%s/databases/%s/documents", opts.ProjectID, db),
	}, nil
}

// ResourceName returns the full resource name of p.
func (c *Client) ResourceName(p Path) string {
	if len(p) == 0 {
		return c.name
	}
	return c.name + "/" + p.String()
}

func (c *Client) url(p Path, suffix string) string {
	u := c.root
	if len(p) > 0 {
		u += "/" + p.escaped()
	}
	return u + suffix
}

// Get reads a document. A missing document returns nil, nil.
func (c *Client) Get(ctx context.Context, p Path) (*Document, error) {
	if err := checkDocument(p); err != nil {
		return nil, err
	}
	var doc Document
	err := c.do(ctx, http.MethodGet, c.url(p, ""), nil, &doc)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	doc.normalize()
	return &doc, nil
}

// Upsert merges fields into p, creating the document if needed. Without a
// mask only the fields present change. With a mask only the listed field
// paths change; a masked path absent from fields is removed.
func (c *Client) Upsert(ctx context.Context, p Path, fields *value.Fields, mask ...string) (*Document, error) {
	return c.patch(ctx, p, fields, false, mask)
}

// Update is Upsert for an existing document only. A missing document
// returns nil, nil and is left uncreated.
func (c *Client) Update(ctx context.Context, p Path, fields *value.Fields, mask ...string) (*Document, error) {
	doc, err := c.patch(ctx, p, fields, true, mask)
	if IsNotFound(err) {
		return nil, nil
	}
	return doc, err
}

func (c *Client) patch(ctx context.Context, p Path, fields *value.Fields, mustExist bool, mask []string) (*Document, error) {
	if err := checkDocument(p); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = value.NewFields()
	}
	if len(mask) == 0 {
		mask = fields.Names()
	}
	body, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return nil, fmt.Errorf("docstore: encode %s: %w", p, err)
	}
	q := url.Values{}
	for _, m := range mask {
		q.Add("updateMask.fieldPaths", m)
	}
	if mustExist {
		q.Set("currentDocument.exists", "true")
	}
	u := c.url(p, "")
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var doc Document
	if err := c.do(ctx, http.MethodPatch, u, body, &doc); err != nil {
		return nil, err
	}
	doc.normalize()
	return &doc, nil
}

// Delete removes p. Deleting a missing document succeeds.
func (c *Client) Delete(ctx context.Context, p Path) error {
	if err := checkDocument(p); err != nil {
		return err
	}
	err := c.do(ctx, http.MethodDelete, c.url(p, ""), nil, nil)
	if IsNotFound(err) {
		return nil
	}
	return err
}

type runQueryItem struct {
	// Document is decoded separately so one unreadable result is skipped
	// instead of failing the query.
	Document json.RawMessage `json:"document"`
	ReadTime string    `json:"readTime"`
	Error    *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// RunQuery runs q against the collection named by q under parent, which is
// nil for a root collection or a document path for a subcollection.
func (c *Client) RunQuery(ctx context.Context, parent Path, q *query.Query) ([]*Document, error) {
	var docs []*Document
	err := c.Stream(ctx, parent, q, func(d *Document) error {
		docs = append(docs, d)
		return nil
	})
	return docs, err
}

// Stream runs q and calls fn for each result document as it is decoded.
// Results whose document cannot be decoded are logged and skipped. An
// error from fn stops the stream and is returned.
func (c *Client) Stream(ctx context.Context, parent Path, q *query.Query, fn func(*Document) error) error {
	if err := checkParent(parent); err != nil {
		return err
	}
	body, err := q.RunQueryRequest()
	if err != nil {
		return err
	}
	u := c.url(parent, ":runQuery")
	return c.doStream(ctx, http.MethodPost, u, body, func(r io.Reader) error {
		dec := json.NewDecoder(r)
		if _, err := expectDelim(dec, '['); err != nil {
			return err
		}
		for dec.More() {
			var item runQueryItem
			if err := dec.Decode(&item); err != nil {
				return fmt.Errorf("docstore: decode query result: %w", err)
			}
			if item.Error != nil {
				return &TransportError{Method: http.MethodPost, URL: u, StatusCode: item.Error.Code, Body: item.Error.Message}
			}
			if len(item.Document) == 0 || string(item.Document) == "null" {
				continue
			}
			var doc Document
			if err := json.Unmarshal(item.Document, &doc); err != nil {
				log.Warn("Skipping unreadable query result", "collection", q.Collection(), "err", err)
				continue
			}
			doc.normalize()
			if err := fn(&doc); err != nil {
				return err
			}
		}
		return nil
	})
}

type aggregationItem struct {
	Result *struct {
		AggregateFields map[string]value.Value `json:"aggregateFields"`
	} `json:"result"`
}

// RunAggregateCount counts the documents matching q. Transport and auth
// failures are returned; a response without a readable count gives 0.
func (c *Client) RunAggregateCount(ctx context.Context, parent Path, q *query.Query) (int64, error) {
	if err := checkParent(parent); err != nil {
		return 0, err
	}
	body, err := q.CountRequest()
	if err != nil {
		return 0, err
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, c.url(parent, ":runAggregationQuery"), body, &raw); err != nil {
		return 0, err
	}
	var items []aggregationItem
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Warn("Unreadable count response", "collection", q.Collection(), "err", err)
		return 0, nil
	}
	for _, it := range items {
		if it.Result == nil {
			continue
		}
		v, ok := it.Result.AggregateFields[query.CountAlias]
		if !ok {
			continue
		}
		if n, ok := v.AsInt(); ok {
			return n, nil
		}
	}
	log.Warn("Count response has no count", "collection", q.Collection())
	return 0, nil
}

func (c *Client) do(ctx context.Context, method, u string, body []byte, out any) error {
	return c.doStream(ctx, method, u, body, func(r io.Reader) error {
		if out == nil {
			_, _ = io.Copy(io.Discard, r)
			return nil
		}
		if err := json.NewDecoder(r).Decode(out); err != nil {
			return fmt.Errorf("docstore: decode %s %s: %w", method, u, err)
		}
		return nil
	})
}

// doStream sends one authorized request and hands a 2xx body to read.
func (c *Client) doStream(ctx context.Context, method, u string, body []byte, read func(io.Reader) error) error {
	start := time.Now()
	outcome := "ok"
	defer func() { security.ObserveDocstoreRequest(method, outcome, start) }()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		outcome = "auth_error"
		return fmt.Errorf("docstore: %s %s: %w", method, u, err)
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		outcome = "error"
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		outcome = "network_error"
		return &TransportError{Method: method, URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = statusOutcome(resp.StatusCode)
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if resp.StatusCode == http.StatusUnauthorized {
			if inv, ok := c.tokens.(interface{ Invalidate() }); ok {
				inv.Invalidate()
			}
		}
		if resp.StatusCode != http.StatusNotFound {
			log.Debug("Document store request failed", "method", method, "url", u, "status", resp.StatusCode)
		}
		return &TransportError{Method: method, URL: u, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := read(resp.Body); err != nil {
		outcome = "decode_error"
		return err
	}
	return nil
}

func statusOutcome(code int) string {
	if code == http.StatusNotFound {
		return "not_found"
	}
	return "http_" + strconv.Itoa(code/100) + "xx"
}

func expectDelim(dec *json.Decoder, want json.Delim) (json.Token, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("docstore: decode response: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return nil, fmt.Errorf("docstore: expected %q in response, got %v", want, tok)
	}
	return tok, nil
}

func checkDocument(p Path) error {
	if !p.IsDocument() {
		return fmt.Errorf("docstore: %q is not a document path", p.String())
	}
	return p.Validate()
}

func checkParent(p Path) error {
	if len(p) == 0 {
		return nil
	}
	return checkDocument(p)
}
