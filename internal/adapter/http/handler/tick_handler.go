package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/farmledger/internal/adapter/journal"
)

// One hour and one day of ticks at the default five minute interval.
const (
	defaultTickLimit = 12
	maxTickLimit     = 288
)

// TickReader reads journaled accrual ticks.
type TickReader interface {
	Recent(n int) ([]journal.TickRecord, error)
}

// TickHandler exposes recent accrual tick reports to operators.
type TickHandler struct {
	journal TickReader
}

func NewTickHandler(j TickReader) *TickHandler {
	return &TickHandler{journal: j}
}

type tickResponse struct {
	Report any    `json:"report"`
	Index  uint64 `json:"index"`
}

// Recent lists the latest ticks, newest first.
func (h *TickHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, defaultTickLimit, maxTickLimit)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid query", err)
		return
	}

	records, err := h.journal.Recent(limit)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to read tick journal")
		writeError(w, r, http.StatusInternalServerError, "journal unavailable", nil)
		return
	}

	resp := make([]tickResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, tickResponse{Index: rec.Index, Report: rec.Report})
	}

	writeJSON(w, r, http.StatusOK, map[string]any{"ticks": resp})
}
