package common

import (
	"net/http"
	"strconv"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams is a 1-based page request.
type PaginationParams struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

func DefaultPaginationParams() PaginationParams {
	return PaginationParams{Page: DefaultPage, PageSize: DefaultPageSize}
}

// Normalize replaces missing values with defaults and caps the page size.
func (p PaginationParams) Normalize() PaginationParams {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// ExtractPaginationParams reads page and pageSize from the query string.
func ExtractPaginationParams(r *http.Request) PaginationParams {
	params := DefaultPaginationParams()
	q := r.URL.Query()
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		params.Page = page
	}
	if pageSize, err := strconv.Atoi(q.Get("pageSize")); err == nil && pageSize > 0 {
		params.PageSize = pageSize
	}
	return params.Normalize()
}

func (p PaginationParams) CalculateOffset() int {
	return (p.Page - 1) * p.PageSize
}

// Window returns the [start, end) slice bounds of this page over total items.
func (p PaginationParams) Window(total int) (int, int) {
	start := p.CalculateOffset()
	if start > total {
		start = total
	}
	end := start + p.PageSize
	if end > total {
		end = total
	}
	return start, end
}

// CalculateTotalPages rounds up total/pageSize.
func CalculateTotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := total / pageSize
	if total%pageSize > 0 {
		pages++
	}
	return pages
}
