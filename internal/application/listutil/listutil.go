// Package listutil parses paging parameters for the list endpoints.
package listutil

import (
	"net/url"
	"strconv"
)

// DefaultPerPage is the page size when per_page is absent or invalid.
const DefaultPerPage = 50

// MaxPerPage caps per_page.
const MaxPerPage = 500

// Page is a 1-indexed page of a list.
type Page struct {
	Number  int `json:"page"`
	PerPage int `json:"per_page"`
}

// ParsePage extracts page and per_page from URL query values.
// POST: Number >= 1; 1 <= PerPage <= MaxPerPage
func ParsePage(q url.Values) Page {
	number, _ := strconv.Atoi(q.Get("page"))
	if number < 1 {
		number = 1
	}
	perPage, err := strconv.Atoi(q.Get("per_page"))
	switch {
	case err != nil || perPage < 1:
		perPage = DefaultPerPage
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}
	return Page{Number: number, PerPage: perPage}
}

// Limit is the store LIMIT for the page.
func (p Page) Limit() int {
	return p.PerPage
}

// Offset is the store OFFSET for the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Next returns the following page when the current one came back full, so
// more rows may exist.
func (p Page) Next(returned int) (Page, bool) {
	if returned < p.PerPage {
		return Page{}, false
	}
	return Page{Number: p.Number + 1, PerPage: p.PerPage}, true
}

// Query renders the page as query parameters, keeping the other values of base.
func (p Page) Query(base url.Values) string {
	q := url.Values{}
	for k, v := range base {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(p.Number))
	q.Set("per_page", strconv.Itoa(p.PerPage))
	return q.Encode()
}
