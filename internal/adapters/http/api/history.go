package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/tauskim/internal/adapters/manifest"
)

const defaultHistoryLimit = 100

// HistoryProvider lists manifest entries.
type HistoryProvider interface {
	History(ctx context.Context, f manifest.Filter) ([]manifest.Entry, error)
}

// HistoryHandler handles history requests.
type HistoryHandler struct {
	deps     HistoryProvider
	maxLimit int
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryProvider, maxLimit int) *HistoryHandler {
	return &HistoryHandler{deps: deps, maxLimit: maxLimit}
}

// HandleHistory handles GET /history?limit=N&sample=S&run_id=R requests.
func (h *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()

	limit := h.maxLimit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", fmt.Errorf("%w: limit above %d", ErrBadRequest, h.maxLimit))
			return
		}
		limit = n
	}

	entries, err := h.deps.History(r.Context(), manifest.Filter{
		RunID:  q.Get("run_id"),
		Sample: q.Get("sample"),
		Limit:  limit,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if entries == nil {
		entries = []manifest.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
