package validators

import (
	"net/http"
	"strconv"
)

// PageParams extracts page/limit query parameters with sane bounds.
func PageParams(r *http.Request) (page, limit int) {
	page = intQuery(r, "page", 1)
	limit = intQuery(r, "limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func intQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
