package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func paramsFor(t *testing.T, url string) PaginationParams {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", url, nil)
	return ParsePaginationParams(c, 20, 100)
}

func TestParsePaginationParams(t *testing.T) {
	tests := []struct {
		url       string
		wantPage  int
		wantLimit int
	}{
		{"/x", 1, 20},
		{"/x?page=3&limit=50", 3, 50},
		{"/x?page=0&limit=0", 1, 20},
		{"/x?page=-1&limit=-5", 1, 20},
		{"/x?limit=9999", 1, 100},
		{"/x?page=abc&limit=abc", 1, 20},
	}

	for _, tt := range tests {
		p := paramsFor(t, tt.url)
		if p.Page != tt.wantPage || p.Limit != tt.wantLimit {
			t.Errorf("%s: got (%d, %d), want (%d, %d)", tt.url, p.Page, p.Limit, tt.wantPage, tt.wantLimit)
		}
	}
}

func TestNormalizeSortDirection(t *testing.T) {
	cases := map[string]string{
		"asc":     "ASC",
		"ASC":     "ASC",
		" asc ":   "ASC",
		"desc":    "DESC",
		"DESC":    "DESC",
		"":        "DESC",
		"sideway": "DESC",
	}

	for input, want := range cases {
		if got := NormalizeSortDirection(input); got != want {
			t.Errorf("NormalizeSortDirection(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCalculateTotalPages(t *testing.T) {
	tests := []struct {
		items, limit, want int
	}{
		{0, 20, 1},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 20, 5},
	}
	for _, tt := range tests {
		if got := CalculateTotalPages(tt.items, tt.limit); got != tt.want {
			t.Errorf("CalculateTotalPages(%d, %d) = %d, want %d", tt.items, tt.limit, got, tt.want)
		}
	}
}
