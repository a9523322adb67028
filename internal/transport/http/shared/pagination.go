package shared

import (
	"net/http"
	"strconv"
)

// Pagination carries the list-window parameters shared by every listing
// endpoint. Bad or missing values fall back to the caller's defaults.
type Pagination struct {
	Limit  int
	Offset int
}

func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	p := Pagination{Limit: defaultLimit}
	if v, ok := queryInt(r, "limit"); ok && v > 0 {
		p.Limit = v
	}
	if v, ok := queryInt(r, "offset"); ok && v >= 0 {
		p.Offset = v
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

func queryInt(r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
