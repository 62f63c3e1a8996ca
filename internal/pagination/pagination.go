// Package pagination splits list results into numbered pages.
package pagination

import (
	"net/url"
	"strconv"

	"opticart/internal/errors"
)

const (
	pageParam     = "page"
	pageSizeParam = "page_size"
)

// Params is a validated page request.
type Params struct {
	Page     int
	PageSize int
}

// Offset is the number of rows before the page.
func (p Params) Offset() int { return (p.Page - 1) * p.PageSize }

// Limit is the maximum number of rows on the page.
func (p Params) Limit() int { return p.PageSize }

// Parse reads page and page_size from query values. page_size falls back to
// defaultSize when absent or invalid and is capped at maxSize. A non-numeric
// or non-positive page is ErrInvalidPage.
func Parse(q url.Values, defaultSize, maxSize int) (Params, error) {
	p := Params{Page: 1, PageSize: defaultSize}

	if raw := q.Get(pageParam); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Params{}, errors.ErrInvalidPage
		}
		p.Page = n
	}
	if raw := q.Get(pageSizeParam); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.PageSize = n
		}
	}
	if maxSize > 0 && p.PageSize > maxSize {
		p.PageSize = maxSize
	}
	return p, nil
}

// Page is one page of results with links to its neighbours.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// New builds a page for results fetched with p out of count total rows.
// base is the request URL the links are derived from. Asking for a page past
// the last one is ErrInvalidPage; page 1 of an empty list is valid.
func New[T any](results []T, count int64, p Params, base *url.URL) (*Page[T], error) {
	pages := int((count + int64(p.PageSize) - 1) / int64(p.PageSize))
	if pages == 0 {
		pages = 1
	}
	if p.Page > pages {
		return nil, errors.ErrInvalidPage
	}
	if results == nil {
		results = []T{}
	}

	page := &Page[T]{Count: count, Results: results}
	if p.Page < pages {
		page.Next = link(base, p.Page+1)
	}
	if p.Page > 1 {
		page.Previous = link(base, p.Page-1)
	}
	return page, nil
}

func link(base *url.URL, page int) *string {
	if base == nil {
		return nil
	}
	u := *base
	q := u.Query()
	if page == 1 {
		q.Del(pageParam)
	} else {
		q.Set(pageParam, strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}
