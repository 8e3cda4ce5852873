package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// sanitizeInput removes control characters except tab, newline and carriage
// return, then trims whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// pathParam returns a sanitized chi URL parameter.
func pathParam(r *http.Request, name string) string {
	return sanitizeInput(chi.URLParam(r, name))
}

func overviewKey(planID string) string {
	return "overview:" + planID
}
