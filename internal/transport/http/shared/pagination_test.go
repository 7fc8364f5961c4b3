package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  Pagination
	}{
		{"defaults", "", Pagination{Limit: 50, Offset: 0}},
		{"limit capped", "?limit=1000", Pagination{Limit: 200, Offset: 0}},
		{"offset", "?limit=10&offset=30", Pagination{Limit: 10, Offset: 30}},
		{"page", "?limit=10&page=3", Pagination{Limit: 10, Offset: 20}},
		{"offset wins over page", "?limit=10&offset=5&page=3", Pagination{Limit: 10, Offset: 5}},
		{"garbage ignored", "?limit=abc&offset=-4&page=x", Pagination{Limit: 50, Offset: 0}},
		{"zero limit ignored", "?limit=0", Pagination{Limit: 50, Offset: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/items"+tc.query, nil)
			assert.Equal(t, tc.want, ParsePagination(r, 50, 200))
		})
	}
}

func TestWriteTotal(t *testing.T) {
	rec := httptest.NewRecorder()
	Pagination{Limit: 10}.WriteTotal(rec, 42)
	assert.Equal(t, "42", rec.Header().Get("X-Total-Count"))
}
