package models

import "encoding/json"

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

type PageQuery struct {
	Page  int64
	Limit int64
}

// Normalize applies the defaults and clamps both values to at least 1.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	return q
}

func (q PageQuery) Skip() int64 {
	q = q.Normalize()
	return (q.Page - 1) * q.Limit
}

// PageLabels renames the documents and total fields of a paginated response.
type PageLabels struct {
	Docs      string
	TotalDocs string
}

var (
	OrderLabels    = PageLabels{Docs: "orders", TotalDocs: "totalOrders"}
	ProductLabels  = PageLabels{Docs: "products", TotalDocs: "totalProducts"}
	CategoryLabels = PageLabels{Docs: "categories", TotalDocs: "totalCategories"}
	AddressLabels  = PageLabels{Docs: "userAddresses", TotalDocs: "totalAddresses"}
	CouponLabels   = PageLabels{Docs: "coupons", TotalDocs: "totalCoupons"}
)

type Page[T any] struct {
	Docs      []T
	TotalDocs int64
	Query     PageQuery
	Labels    PageLabels
}

func NewPage[T any](docs []T, total int64, q PageQuery) Page[T] {
	if docs == nil {
		docs = []T{}
	}
	return Page[T]{Docs: docs, TotalDocs: total, Query: q.Normalize(), Labels: PageLabels{Docs: "docs", TotalDocs: "totalDocs"}}
}

func (p Page[T]) WithLabels(l PageLabels) Page[T] {
	p.Labels = l
	return p
}

func (p Page[T]) TotalPages() int64 {
	if p.TotalDocs == 0 {
		return 1
	}
	return (p.TotalDocs + p.Query.Limit - 1) / p.Query.Limit
}

// MapDocs converts the documents of a page, keeping its metadata.
func MapDocs[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, len(p.Docs))
	for i, d := range p.Docs {
		out[i] = fn(d)
	}
	return Page[U]{Docs: out, TotalDocs: p.TotalDocs, Query: p.Query, Labels: p.Labels}
}

func (p Page[T]) MarshalJSON() ([]byte, error) {
	totalPages := p.TotalPages()
	var prev, next *int64
	if p.Query.Page > 1 {
		v := p.Query.Page - 1
		prev = &v
	}
	if p.Query.Page < totalPages {
		v := p.Query.Page + 1
		next = &v
	}

	return json.Marshal(map[string]any{
		p.Labels.Docs:           p.Docs,
		p.Labels.TotalDocs:      p.TotalDocs,
		"limit":                 p.Query.Limit,
		"page":                  p.Query.Page,
		"totalPages":            totalPages,
		"serialNumberStartFrom": p.Query.Skip() + 1,
		"hasPrevPage":           prev != nil,
		"hasNextPage":           next != nil,
		"prevPage":              prev,
		"nextPage":              next,
	})
}
