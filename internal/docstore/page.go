package docstore

import (
	"context"
	"sort"

	"github.com/chirino/journal-service/internal/docstore/query"
)

// Page is one page of results and whether more exist past it.
type Page[T any] struct {
	Items   []T  `json:"items"`
	HasMore bool `json:"has_more"`
}

// TrimPage applies the limit+1 idiom: items holds up to limit+1 results;
// a surplus sets HasMore and is cut off. A limit <= 0 keeps everything.
func TrimPage[T any](items []T, limit int) Page[T] {
	if limit > 0 && len(items) > limit {
		return Page[T]{Items: items[:limit], HasMore: true}
	}
	return Page[T]{Items: items}
}

// MapPage converts the items of p, dropping those for which fn reports
// false. HasMore is kept as is.
func MapPage[T, U any](p Page[T], fn func(T) (U, bool)) Page[U] {
	out := Page[U]{Items: make([]U, 0, len(p.Items)), HasMore: p.HasMore}
	for _, it := range p.Items {
		if u, ok := fn(it); ok {
			out.Items = append(out.Items, u)
		}
	}
	return out
}

// FetchPage runs q under parent with Limit(limit+1) and trims the result.
// A limit <= 0 fetches without a limit.
func (c *Client) FetchPage(ctx context.Context, parent Path, q *query.Query, limit int) (Page[*Document], error) {
	q = q.Clone()
	if limit > 0 {
		q.Limit(limit + 1)
	}
	docs, err := c.RunQuery(ctx, parent, q)
	if err != nil {
		return Page[*Document]{}, err
	}
	return TrimPage(docs, limit), nil
}

// InMemory filters, sorts and pages items that were fetched without
// server-side ordering. keep and less may be nil. The caller is responsible
// for the bound it fetched items with; results past that bound are never
// seen here.
func InMemory[T any](items []T, keep func(T) bool, less func(a, b T) bool, offset, limit int) Page[T] {
	filtered := make([]T, 0, len(items))
	for _, it := range items {
		if keep == nil || keep(it) {
			filtered = append(filtered, it)
		}
	}
	if less != nil {
		sort.SliceStable(filtered, func(i, j int) bool { return less(filtered[i], filtered[j]) })
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(filtered) {
		return Page[T]{Items: []T{}}
	}
	return TrimPage(filtered[offset:], limit)
}
