package query

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chirino/journal-service/internal/docstore/value"
)

// Direction orders query results.
type Direction string

const (
	Ascending  Direction = "ASCENDING"
	Descending Direction = "DESCENDING"
)

// Order is one ordering clause.
type Order struct {
	Path      string
	Direction Direction
}

// Query describes a structured query over a single collection. Builder
// methods record the first construction error; it is reported by Err and by
// every request method.
type Query struct {
	collection string
	filters    []Filter
	orders     []Order
	limit      int
	offset     int
	fields     []string
	err        error
}

// From starts a query over the named collection, relative to the parent
// document the query is run under.
func From(collection string) *Query {
	q := &Query{collection: collection}
	if collection == "" {
		q.err = errors.New("query: empty collection")
	}
	return q
}

func (q *Query) fail(err error) *Query {
	if q.err == nil {
		q.err = err
	}
	return q
}

// Where appends filters. They are ANDed together in the order given.
func (q *Query) Where(filters ...Filter) *Query {
	for _, f := range filters {
		if f == nil {
			return q.fail(errors.New("query: nil filter"))
		}
		q.filters = append(q.filters, f)
	}
	return q
}

// WhereField appends a single comparison.
func (q *Query) WhereField(path string, op Op, v value.Value) *Query {
	f, err := Field(path, op, v)
	if err != nil {
		return q.fail(err)
	}
	q.filters = append(q.filters, f)
	return q
}

func (q *Query) OrderBy(path string, dir Direction) *Query {
	if path == "" {
		return q.fail(ErrEmptyPath)
	}
	if dir != Ascending && dir != Descending {
		return q.fail(fmt.Errorf("query: unsupported direction %q", dir))
	}
	q.orders = append(q.orders, Order{Path: path, Direction: dir})
	return q
}

// Limit caps the result count. Zero means unlimited.
func (q *Query) Limit(n int) *Query {
	if n < 0 {
		return q.fail(fmt.Errorf("query: negative limit %d", n))
	}
	q.limit = n
	return q
}

func (q *Query) Offset(n int) *Query {
	if n < 0 {
		return q.fail(fmt.Errorf("query: negative offset %d", n))
	}
	q.offset = n
	return q
}

// Select restricts the returned fields.
func (q *Query) Select(paths ...string) *Query {
	q.fields = append(q.fields, paths...)
	return q
}

func (q *Query) Err() error { return q.err }

func (q *Query) Collection() string { return q.collection }

func (q *Query) Filters() []Filter { return q.filters }

func (q *Query) Orders() []Order { return q.orders }

func (q *Query) LimitValue() int { return q.limit }

func (q *Query) OffsetValue() int { return q.offset }

// Clone returns a copy that can be modified independently.
func (q *Query) Clone() *Query {
	c := *q
	c.filters = append([]Filter(nil), q.filters...)
	c.orders = append([]Order(nil), q.orders...)
	c.fields = append([]string(nil), q.fields...)
	return &c
}

type collectionSelector struct {
	CollectionID string `json:"collectionId"`
}

type orderJSON struct {
	Field     fieldRef  `json:"field"`
	Direction Direction `json:"direction"`
}

type projectionJSON struct {
	Fields []fieldRef `json:"fields"`
}

type structuredQuery struct {
	Select  *projectionJSON      `json:"select,omitempty"`
	From    []collectionSelector `json:"from"`
	Where   Filter               `json:"where,omitempty"`
	OrderBy []orderJSON          `json:"orderBy,omitempty"`
	Offset  int                  `json:"offset,omitempty"`
	Limit   int                  `json:"limit,omitempty"`
}

func (q *Query) structured(withPaging bool) (*structuredQuery, error) {
	if q.err != nil {
		return nil, q.err
	}
	where, err := Compose(q.filters)
	if err != nil {
		return nil, err
	}
	sq := &structuredQuery{
		From:  []collectionSelector{{CollectionID: q.collection}},
		Where: where,
	}
	if len(q.fields) > 0 {
		sq.Select = &projectionJSON{}
		for _, f := range q.fields {
			sq.Select.Fields = append(sq.Select.Fields, fieldRef{f})
		}
	}
	if withPaging {
		for _, o := range q.orders {
			sq.OrderBy = append(sq.OrderBy, orderJSON{Field: fieldRef{o.Path}, Direction: o.Direction})
		}
		sq.Limit = q.limit
		sq.Offset = q.offset
	}
	return sq, nil
}

// RunQueryRequest returns the JSON body for a :runQuery call.
func (q *Query) RunQueryRequest() ([]byte, error) {
	sq, err := q.structured(true)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{"structuredQuery": sq})
}

// CountAlias is the aggregation alias used by CountRequest.
const CountAlias = "count"

// CountRequest returns the JSON body for a :runAggregationQuery count.
// Ordering and paging do not apply to a count.
func (q *Query) CountRequest() ([]byte, error) {
	sq, err := q.structured(false)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{
		"structuredAggregationQuery": map[string]any{
			"structuredQuery": sq,
			"aggregations": []map[string]any{
				{"alias": CountAlias, "count": map[string]any{}},
			},
		},
	})
}
