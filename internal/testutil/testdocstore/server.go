// Package testdocstore is an in-memory stand-in for the Firestore REST API,
// served over httptest. It covers the calls the journal client makes:
// document GET, PATCH (with update masks) and DELETE, plus runQuery and
// runAggregationQuery with field, unary and AND filters.
package testdocstore

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chirino/journal-service/internal/docstore/value"
)

const (
	ProjectID  = "journal-test"
	DatabaseID = "(default)"
)

// Request is one request the server received.
type Request struct {
	Method string
	// Path is relative to the documents root and may carry a :runQuery
	// or :runAggregationQuery suffix.
	Path  string
	Query url.Values
	Body  []byte
	Token string
}

type document struct {
	fields     *value.Fields
	createTime time.Time
	updateTime time.Time
}

// Server holds documents keyed by their slash-separated path.
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	docs     map[string]*document
	requests []Request
	failures []int
	broken   map[string]int
	now      func() time.Time
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		docs:   map[string]*document{},
		broken: map[string]int{},
		now:    func() time.Time { return time.Now().UTC() },
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.srv.Close)
	return s
}

// Endpoint is the base URL to configure the client with.
func (s *Server) Endpoint() string { return s.srv.URL + "/v1" }

func (s *Server) root() string {
	return "/v1/projects/" + ProjectID + "/databases/" + DatabaseID + "/documents"
}

func (s *Server) resourceName(path string) string {
	return "projects/" + ProjectID + "/databases/" + DatabaseID + "/documents/" + path
}

// Put stores fields at path directly, bypassing HTTP.
func (s *Server) Put(path string, fields *value.Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.docs[strings.Trim(path, "/")] = &document{fields: fields, createTime: now, updateTime: now}
}

// Fields returns the stored fields at path.
func (s *Server) Fields(path string) (*value.Fields, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[strings.Trim(path, "/")]
	if !ok {
		return nil, false
	}
	return d.fields, true
}

// Paths lists the stored document paths directly under collection, sorted.
func (s *Server) Paths(collection string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	collection = strings.Trim(collection, "/")
	var out []string
	for p := range s.docs {
		if parentCollection(p) == collection {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Reset drops all documents, recorded requests and injected failures.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = map[string]*document{}
	s.requests = nil
	s.failures = nil
	s.broken = map[string]int{}
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// FailNext makes the next requests answer with the given status codes, in
// order.
func (s *Server) FailNext(status ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, status...)
}

// FailPath makes every request for the document at path answer with
// status until Reset. A zero status clears it.
func (s *Server) FailPath(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.broken, path)
		return
	}
	s.broken[path] = status
}

func parentCollection(docPath string) string {
	i := strings.LastIndexByte(docPath, '/')
	if i < 0 {
		return ""
	}
	return docPath[:i]
}

func writeError(w http.ResponseWriter, code int, status, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": msg, "status": status},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	rel, ok := strings.CutPrefix(r.URL.Path, s.root())
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown database")
		return
	}
	rel = strings.TrimPrefix(rel, "/")
	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")

	s.mu.Lock()
	s.requests = append(s.requests, Request{Method: r.Method, Path: rel, Query: r.URL.Query(), Body: body, Token: token})
	var fail int
	if len(s.failures) > 0 {
		fail, s.failures = s.failures[0], s.failures[1:]
	} else if status, ok := s.broken[rel]; ok {
		fail = status
	}
	s.mu.Unlock()

	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing bearer token")
		return
	}
	if fail != 0 {
		writeError(w, fail, "INJECTED", "injected failure")
		return
	}

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(rel, ":runQuery"):
		s.runQuery(w, strings.TrimSuffix(rel, ":runQuery"), body)
	case r.Method == http.MethodPost && strings.HasSuffix(rel, ":runAggregationQuery"):
		s.runAggregation(w, strings.TrimSuffix(rel, ":runAggregationQuery"), body)
	case r.Method == http.MethodGet:
		s.get(w, rel)
	case r.Method == http.MethodPatch:
		s.patch(w, rel, r.URL.Query(), body)
	case r.Method == http.MethodDelete:
		s.mu.Lock()
		delete(s.docs, rel)
		s.mu.Unlock()
		writeJSON(w, map[string]any{})
	default:
		writeError(w, http.StatusMethodNotAllowed, "INVALID_ARGUMENT", r.Method+" not supported")
	}
}

func (s *Server) docJSON(path string, d *document) map[string]any {
	return map[string]any{
		"name":       s.resourceName(path),
		"fields":     d.fields,
		"createTime": d.createTime.Format(time.RFC3339Nano),
		"updateTime": d.updateTime.Format(time.RFC3339Nano),
	}
}

func (s *Server) get(w http.ResponseWriter, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[path]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "document not found: "+path)
		return
	}
	writeJSON(w, s.docJSON(path, d))
}

func (s *Server) patch(w http.ResponseWriter, path string, params url.Values, body []byte) {
	mask := params["updateMask.fieldPaths"]
	var req struct {
		Fields *value.Fields `json:"fields"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	if req.Fields == nil {
		req.Fields = value.NewFields()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	d, exists := s.docs[path]
	if !exists && params.Get("currentDocument.exists") == "true" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "document not found: "+path)
		return
	}
	if !exists {
		d = &document{fields: value.NewFields(), createTime: now}
		s.docs[path] = d
	}
	if len(mask) == 0 {
		d.fields = req.Fields
	} else {
		for _, m := range mask {
			if v, ok := req.Fields.Get(m); ok {
				d.fields.Set(m, v)
			} else {
				d.fields.Delete(m)
			}
		}
	}
	d.updateTime = now
	writeJSON(w, s.docJSON(path, d))
}

type fieldRef struct {
	FieldPath string `json:"fieldPath"`
}

type filterJSON struct {
	FieldFilter *struct {
		Field fieldRef    `json:"field"`
		Op    string      `json:"op"`
		Value value.Value `json:"value"`
	} `json:"fieldFilter"`
	UnaryFilter *struct {
		Field fieldRef `json:"field"`
		Op    string   `json:"op"`
	} `json:"unaryFilter"`
	CompositeFilter *struct {
		Op      string       `json:"op"`
		Filters []filterJSON `json:"filters"`
	} `json:"compositeFilter"`
}

type structuredQuery struct {
	Select *struct {
		Fields []fieldRef `json:"fields"`
	} `json:"select"`
	From []struct {
		CollectionID string `json:"collectionId"`
	} `json:"from"`
	Where   *filterJSON `json:"where"`
	OrderBy []struct {
		Field     fieldRef `json:"field"`
		Direction string   `json:"direction"`
	} `json:"orderBy"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type match struct {
	path string
	doc  *document
}

// evaluate returns the documents selected by q under parent, ordered,
// offset and limited. Documents missing an ordered field are excluded.
func (s *Server) evaluate(parent string, q *structuredQuery, paging bool) ([]match, error) {
	if len(q.From) != 1 {
		return nil, fmt.Errorf("query needs exactly one collection")
	}
	coll := q.From[0].CollectionID
	if parent != "" {
		coll = parent + "/" + coll
	}

	s.mu.Lock()
	var out []match
	for p, d := range s.docs {
		if parentCollection(p) != coll {
			continue
		}
		if q.Where != nil {
			ok, err := matches(q.Where, d.fields)
			if err != nil {
				s.mu.Unlock()
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, match{path: p, doc: d})
	}
	s.mu.Unlock()

	if !paging {
		return out, nil
	}
	if len(q.OrderBy) > 0 {
		kept := out[:0]
		for _, m := range out {
			ok := true
			for _, o := range q.OrderBy {
				if _, has := m.doc.fields.Get(o.Field.FieldPath); !has {
					ok = false
				}
			}
			if ok {
				kept = append(kept, m)
			}
		}
		out = kept
	}
	sort.SliceStable(out, func(i, j int) bool {
		for _, o := range q.OrderBy {
			a, _ := out[i].doc.fields.Get(o.Field.FieldPath)
			b, _ := out[j].doc.fields.Get(o.Field.FieldPath)
			c := compare(a, b)
			if c == 0 {
				continue
			}
			if o.Direction == "DESCENDING" {
				return c > 0
			}
			return c < 0
		}
		return out[i].path < out[j].path
	})
	if q.Offset > 0 {
		if q.Offset >= len(out) {
			out = nil
		} else {
			out = out[q.Offset:]
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Server) runQuery(w http.ResponseWriter, parent string, body []byte) {
	var req struct {
		StructuredQuery *structuredQuery `json:"structuredQuery"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.StructuredQuery == nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", fmt.Sprintf("bad query: %v", err))
		return
	}
	found, err := s.evaluate(parent, req.StructuredQuery, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	readTime := s.now().Format(time.RFC3339Nano)
	if len(found) == 0 {
		writeJSON(w, []any{map[string]any{"readTime": readTime}})
		return
	}
	resp := make([]any, 0, len(found))
	for _, m := range found {
		d := m.doc
		if sel := req.StructuredQuery.Select; sel != nil {
			projected := value.NewFields()
			for _, f := range sel.Fields {
				if v, ok := d.fields.Get(f.FieldPath); ok {
					projected.Set(f.FieldPath, v)
				}
			}
			d = &document{fields: projected, createTime: d.createTime, updateTime: d.updateTime}
		}
		resp = append(resp, map[string]any{"document": s.docJSON(m.path, d), "readTime": readTime})
	}
	writeJSON(w, resp)
}

func (s *Server) runAggregation(w http.ResponseWriter, parent string, body []byte) {
	var req struct {
		StructuredAggregationQuery *struct {
			StructuredQuery *structuredQuery `json:"structuredQuery"`
			Aggregations    []struct {
				Alias string          `json:"alias"`
				Count json.RawMessage `json:"count"`
			} `json:"aggregations"`
		} `json:"structuredAggregationQuery"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.StructuredAggregationQuery == nil || req.StructuredAggregationQuery.StructuredQuery == nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", fmt.Sprintf("bad aggregation: %v", err))
		return
	}
	agg := req.StructuredAggregationQuery
	found, err := s.evaluate(parent, agg.StructuredQuery, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	fields := map[string]value.Value{}
	for _, a := range agg.Aggregations {
		if a.Count != nil {
			fields[a.Alias] = value.Int(int64(len(found)))
		}
	}
	writeJSON(w, []any{map[string]any{
		"result":   map[string]any{"aggregateFields": fields},
		"readTime": s.now().Format(time.RFC3339Nano),
	}})
}

func matches(f *filterJSON, fields *value.Fields) (bool, error) {
	switch {
	case f.CompositeFilter != nil:
		if f.CompositeFilter.Op != "AND" {
			return false, fmt.Errorf("unsupported composite op %q", f.CompositeFilter.Op)
		}
		if len(f.CompositeFilter.Filters) < 2 {
			return false, fmt.Errorf("composite filter needs at least two filters")
		}
		for i := range f.CompositeFilter.Filters {
			ok, err := matches(&f.CompositeFilter.Filters[i], fields)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case f.UnaryFilter != nil:
		v, ok := fields.Get(f.UnaryFilter.Field.FieldPath)
		switch f.UnaryFilter.Op {
		case "IS_NULL":
			return ok && v.IsNull(), nil
		case "IS_NOT_NULL":
			return ok && !v.IsNull(), nil
		}
		return false, fmt.Errorf("unsupported unary op %q", f.UnaryFilter.Op)
	case f.FieldFilter != nil:
		ff := f.FieldFilter
		v, ok := fields.Get(ff.Field.FieldPath)
		if !ok {
			return false, nil
		}
		switch ff.Op {
		case "EQUAL":
			return compare(v, ff.Value) == 0, nil
		case "NOT_EQUAL":
			return !v.IsNull() && compare(v, ff.Value) != 0, nil
		case "LESS_THAN":
			return sameType(v, ff.Value) && compare(v, ff.Value) < 0, nil
		case "LESS_THAN_OR_EQUAL":
			return sameType(v, ff.Value) && compare(v, ff.Value) <= 0, nil
		case "GREATER_THAN":
			return sameType(v, ff.Value) && compare(v, ff.Value) > 0, nil
		case "GREATER_THAN_OR_EQUAL":
			return sameType(v, ff.Value) && compare(v, ff.Value) >= 0, nil
		case "IN":
			arr, ok := ff.Value.AsArray()
			if !ok {
				return false, fmt.Errorf("IN needs an array")
			}
			for _, a := range arr {
				if compare(v, a) == 0 {
					return true, nil
				}
			}
			return false, nil
		}
		return false, fmt.Errorf("unsupported field op %q", ff.Op)
	}
	return false, fmt.Errorf("empty filter")
}

// typeOrder follows the store's cross-type ordering; ints and doubles
// compare as numbers.
func typeOrder(v value.Value) int {
	switch v.Kind() {
	case value.KindNull:
		return 0
	case value.KindBool:
		return 1
	case value.KindInt, value.KindDouble:
		return 2
	case value.KindTimestamp:
		return 3
	case value.KindString:
		return 4
	case value.KindBytes:
		return 5
	case value.KindArray:
		return 6
	default:
		return 7
	}
}

func sameType(a, b value.Value) bool { return typeOrder(a) == typeOrder(b) }

func compare(a, b value.Value) int {
	ta, tb := typeOrder(a), typeOrder(b)
	if ta != tb {
		return ta - tb
	}
	switch ta {
	case 1:
		x, _ := a.AsBool()
		y, _ := b.AsBool()
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case 2:
		x, _ := a.AsNumber()
		y, _ := b.AsNumber()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case 3:
		x, _ := a.AsTimestamp()
		y, _ := b.AsTimestamp()
		return x.Compare(y)
	case 4:
		x, _ := a.AsString()
		y, _ := b.AsString()
		return strings.Compare(x, y)
	}
	if a.Equal(b) {
		return 0
	}
	return strings.Compare(a.String(), b.String())
}
