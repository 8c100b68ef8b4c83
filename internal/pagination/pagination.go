// Package pagination slices ordered collections into fixed-size pages.
//
// Out-of-range requests never fail: they produce a page with no items whose
// Number is clamped into [1, max(TotalPages, 1)].
package pagination

import (
	"context"
	"strconv"
	"strings"
)

// DefaultSize is used when a caller passes a non-positive page size.
const DefaultSize = 10

// Page is one slice of an ordered collection plus the numbers needed to render a pager.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Number     int   `json:"number"`
	Size       int   `json:"size"`
	TotalPages int   `json:"total_pages"`
	TotalCount int64 `json:"total_count"`
}

func (p Page[T]) HasNext() bool {
	return p.Number < p.TotalPages
}

func (p Page[T]) HasPrevious() bool {
	return p.Number > 1
}

func (p Page[T]) NextNumber() int {
	if p.HasNext() {
		return p.Number + 1
	}
	return p.Number
}

func (p Page[T]) PreviousNumber() int {
	if p.HasPrevious() {
		return p.Number - 1
	}
	return p.Number
}

// Numbers lists every page number, for pager links.
func (p Page[T]) Numbers() []int {
	out := make([]int, p.TotalPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// ParseNumber reads a page number from a query value. Missing or non-integer input means page 1.
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

// TotalPages is ceil(count/size).
func TotalPages(count int64, size int) int {
	if size <= 0 {
		size = DefaultSize
	}
	if count <= 0 {
		return 0
	}
	return int((count + int64(size) - 1) / int64(size))
}

type window struct {
	number     int
	offset     int
	inRange    bool
	totalPages int
}

func locate(requested, size int, count int64) window {
	total := TotalPages(count, size)
	w := window{number: requested, totalPages: total}

	switch {
	case requested < 1:
		w.number = 1
	case requested > total:
		w.number = max(total, 1)
	default:
		w.inRange = true
		w.offset = (requested - 1) * size
	}
	return w
}

func normalizeSize(size int) int {
	if size <= 0 {
		return DefaultSize
	}
	return size
}

// Paginate returns page `number` of an in-memory collection.
func Paginate[T any](items []T, size, number int) Page[T] {
	size = normalizeSize(size)
	w := locate(number, size, int64(len(items)))

	page := Page[T]{
		Items:      []T{},
		Number:     w.number,
		Size:       size,
		TotalPages: w.totalPages,
		TotalCount: int64(len(items)),
	}
	if w.inRange {
		end := min(w.offset+size, len(items))
		page.Items = append(page.Items, items[w.offset:end]...)
	}
	return page
}

// Source is a collection that can count itself and fetch a window, typically a database query.
type Source[T any] struct {
	Count func(ctx context.Context) (int64, error)
	Fetch func(ctx context.Context, limit, offset int) ([]T, error)
}

// Query returns page `number` of src, fetching only the rows of that page.
func Query[T any](ctx context.Context, src Source[T], size, number int) (Page[T], error) {
	size = normalizeSize(size)

	count, err := src.Count(ctx)
	if err != nil {
		return Page[T]{}, err
	}
	w := locate(number, size, count)

	page := Page[T]{
		Items:      []T{},
		Number:     w.number,
		Size:       size,
		TotalPages: w.totalPages,
		TotalCount: count,
	}
	if !w.inRange {
		return page, nil
	}

	items, err := src.Fetch(ctx, size, w.offset)
	if err != nil {
		return Page[T]{}, err
	}
	if items != nil {
		page.Items = items
	}
	return page, nil
}
