// Package query builds structured queries for the document store.
package query

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chirino/journal-service/internal/docstore/value"
)

// Op is a field comparison operator.
type Op string

const (
	Equal              Op = "EQUAL"
	NotEqual           Op = "NOT_EQUAL"
	LessThan           Op = "LESS_THAN"
	LessThanOrEqual    Op = "LESS_THAN_OR_EQUAL"
	GreaterThan        Op = "GREATER_THAN"
	GreaterThanOrEqual Op = "GREATER_THAN_OR_EQUAL"
	In                 Op = "IN"
	// IsNull is unary and takes no value.
	IsNull Op = "IS_NULL"
)

var ErrEmptyPath = errors.New("query: empty field path")

// ParseOp accepts the wire names plus the usual symbolic forms.
func ParseOp(s string) (Op, error) {
	switch s {
	case "EQUAL", "==", "=", "eq":
		return Equal, nil
	case "NOT_EQUAL", "!=", "ne":
		return NotEqual, nil
	case "LESS_THAN", "<", "lt":
		return LessThan, nil
	case "LESS_THAN_OR_EQUAL", "<=", "lte":
		return LessThanOrEqual, nil
	case "GREATER_THAN", ">", "gt":
		return GreaterThan, nil
	case "GREATER_THAN_OR_EQUAL", ">=", "gte":
		return GreaterThanOrEqual, nil
	case "IN", "in":
		return In, nil
	case "IS_NULL", "null":
		return IsNull, nil
	default:
		return "", fmt.Errorf("query: unsupported operator %q", s)
	}
}

// Filter is a node of a filter tree: a single comparison or an AND
// composite of two or more nodes.
type Filter interface {
	json.Marshaler
	// Leaves returns the comparisons in this node, in order.
	Leaves() []*FieldFilter
}

// FieldFilter compares one field against a value.
type FieldFilter struct {
	Path  string
	Op    Op
	Value value.Value
}

// Field builds a comparison, rejecting operators and values the store
// layer does not support.
func Field(path string, op Op, v value.Value) (*FieldFilter, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	switch op {
	case Equal, NotEqual, LessThan, LessThanOrEqual, GreaterThan, GreaterThanOrEqual:
	case In:
		arr, ok := v.AsArray()
		if !ok {
			return nil, fmt.Errorf("query: IN on %q needs an array value, got %s", path, v.Kind())
		}
		if len(arr) == 0 {
			return nil, fmt.Errorf("query: IN on %q needs at least one value", path)
		}
	case IsNull:
		if !v.IsNull() {
			return nil, fmt.Errorf("query: IS_NULL on %q takes no value", path)
		}
	default:
		return nil, fmt.Errorf("query: unsupported operator %q", op)
	}
	return &FieldFilter{Path: path, Op: op, Value: v}, nil
}

// Eq is Field(path, Equal, v) for callers with a known-good path.
func Eq(path string, v value.Value) *FieldFilter {
	return &FieldFilter{Path: path, Op: Equal, Value: v}
}

// InStrings is a set-membership filter over string values.
func InStrings(path string, values []string) (*FieldFilter, error) {
	return Field(path, In, value.Strings(values))
}

// Null matches documents whose field is null.
func Null(path string) (*FieldFilter, error) {
	return Field(path, IsNull, value.Null())
}

// Range returns the half-open interval path >= from and path < to.
func Range(path string, from, to value.Value) []Filter {
	return []Filter{
		&FieldFilter{Path: path, Op: GreaterThanOrEqual, Value: from},
		&FieldFilter{Path: path, Op: LessThan, Value: to},
	}
}

func (f *FieldFilter) Leaves() []*FieldFilter { return []*FieldFilter{f} }

type fieldRef struct {
	FieldPath string `json:"fieldPath"`
}

func (f *FieldFilter) MarshalJSON() ([]byte, error) {
	if f.Op == IsNull {
		return json.Marshal(map[string]any{
			"unaryFilter": map[string]any{
				"op":    string(IsNull),
				"field": fieldRef{f.Path},
			},
		})
	}
	return json.Marshal(map[string]any{
		"fieldFilter": map[string]any{
			"field": fieldRef{f.Path},
			"op":    string(f.Op),
			"value": f.Value,
		},
	})
}

// AndFilter is a conjunction of at least two nodes.
type AndFilter struct {
	Filters []Filter
}

// And builds a composite. Fewer than two nodes is an error; callers with a
// variable number of filters should use Compose.
func And(filters ...Filter) (*AndFilter, error) {
	if len(filters) < 2 {
		return nil, fmt.Errorf("query: AND needs at least two filters, got %d", len(filters))
	}
	for i, f := range filters {
		if f == nil {
			return nil, fmt.Errorf("query: AND filter %d is nil", i)
		}
	}
	c := make([]Filter, len(filters))
	copy(c, filters)
	return &AndFilter{Filters: c}, nil
}

func (a *AndFilter) Leaves() []*FieldFilter {
	var out []*FieldFilter
	for _, f := range a.Filters {
		out = append(out, f.Leaves()...)
	}
	return out
}

func (a *AndFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"compositeFilter": map[string]any{
			"op":      "AND",
			"filters": a.Filters,
		},
	})
}

// Compose returns nil for no filters, the filter itself for one, and an
// AND composite otherwise.
func Compose(filters []Filter) (Filter, error) {
	switch len(filters) {
	case 0:
		return nil, nil
	case 1:
		if filters[0] == nil {
			return nil, errors.New("query: nil filter")
		}
		return filters[0], nil
	default:
		and, err := And(filters...)
		if err != nil {
			return nil, err
		}
		return and, nil
	}
}
