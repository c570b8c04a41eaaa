package common

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPaginationParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  PaginationParams
	}{
		{"defaults", "", PaginationParams{Page: 1, PageSize: 20}},
		{"explicit", "?page=3&pageSize=50", PaginationParams{Page: 3, PageSize: 50}},
		{"capped", "?pageSize=500", PaginationParams{Page: 1, PageSize: MaxPageSize}},
		{"garbage", "?page=abc&pageSize=-2", PaginationParams{Page: 1, PageSize: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/codes/search"+tt.query, nil)
			assert.Equal(t, tt.want, ExtractPaginationParams(r))
		})
	}
}

func TestPaginationWindow(t *testing.T) {
	p := PaginationParams{Page: 2, PageSize: 20}

	start, end := p.Window(45)
	assert.Equal(t, 20, start)
	assert.Equal(t, 40, end)

	start, end = PaginationParams{Page: 3, PageSize: 20}.Window(45)
	assert.Equal(t, 40, start)
	assert.Equal(t, 45, end)

	start, end = PaginationParams{Page: 9, PageSize: 20}.Window(45)
	assert.Equal(t, 45, start)
	assert.Equal(t, 45, end)
}

func TestCalculateTotalPages(t *testing.T) {
	assert.Equal(t, 0, CalculateTotalPages(0, 20))
	assert.Equal(t, 1, CalculateTotalPages(20, 20))
	assert.Equal(t, 3, CalculateTotalPages(41, 20))
	assert.Equal(t, 0, CalculateTotalPages(10, 0))
}
