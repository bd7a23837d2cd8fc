package pagination

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/JaimeStill/beacon/pkg/query"
)

// PageRequest asks for one page of a view. Search and Sort are optional.
type PageRequest struct {
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Search   string            `json:"search,omitempty"`
	Sort     []query.SortField `json:"sort,omitempty"`
}

// Normalize clamps the request into cfg's bounds. Page counts from 1.
func (r *PageRequest) Normalize(cfg Config) {
	r.Page = max(r.Page, 1)
	if r.PageSize < 1 {
		r.PageSize = cfg.DefaultPageSize
	}
	r.PageSize = min(r.PageSize, cfg.MaxPageSize)
}

// FromQuery reads page, page_size, search and sort ("leadScore,-predictedAt").
// Malformed numbers fall back to the defaults.
func FromQuery(values url.Values, cfg Config) PageRequest {
	page, _ := strconv.Atoi(values.Get("page"))
	size, _ := strconv.Atoi(values.Get("page_size"))

	req := PageRequest{
		Page:     page,
		PageSize: size,
		Search:   strings.TrimSpace(values.Get("search")),
		Sort:     query.ParseSortFields(values.Get("sort")),
	}
	req.Normalize(cfg)
	return req
}

// Page is a request resolved against a result set.
type Page struct {
	Number int
	Pages  int
	// Start and End bound the page within the result set.
	Start, End int
}

// Locate resolves r against total items. A page past the end falls back to
// page 1, and an empty set has zero pages.
func (r PageRequest) Locate(total int) Page {
	p := Page{Number: r.Page, Pages: TotalPages(total, r.PageSize)}
	if p.Number < 1 || p.Number > p.Pages {
		p.Number = 1
	}
	if total > 0 && r.PageSize > 0 {
		p.Start = min((p.Number-1)*r.PageSize, total)
		p.End = min(p.Start+r.PageSize, total)
	}
	return p
}

// TotalPages is ceil(total / pageSize).
func TotalPages(total, pageSize int) int {
	if pageSize < 1 || total < 1 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
