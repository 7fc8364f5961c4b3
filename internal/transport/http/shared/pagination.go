package shared

import (
	"net/http"
	"strconv"
)

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit with either offset or a 1-based page. An
// explicit offset wins over page; invalid values fall back to the defaults.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	query := r.URL.Query()
	limit := defaultLimit
	if v, ok := positiveInt(query.Get("limit")); ok && v > 0 {
		limit = v
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}

	offset := 0
	if v, ok := positiveInt(query.Get("offset")); ok {
		offset = v
	} else if v, ok := positiveInt(query.Get("page")); ok && v > 1 {
		offset = (v - 1) * limit
	}
	return Pagination{Limit: limit, Offset: offset}
}

// WriteTotal exposes the unpaginated row count so clients can page.
func (p Pagination) WriteTotal(w http.ResponseWriter, total int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
}

func positiveInt(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
