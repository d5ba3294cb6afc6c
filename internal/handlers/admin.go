package handlers

import (
	"net/http"

	"fotoboek/internal/logging"
)

// ScanResponse is the body of POST /api/admin/scan.
type ScanResponse struct {
	Total      int   `json:"total"`
	Added      int   `json:"added"`
	Failed     int   `json:"failed"`
	DurationMs int64 `json:"durationMs"`
}

// TriggerScan registers every new file below the media root. Only one scan
// runs at a time; a concurrent request gets 409.
func (h *Handlers) TriggerScan(w http.ResponseWriter, r *http.Request) {
	if !h.scanning.CompareAndSwap(false, true) {
		writeJSONError(w, "Scan already in progress", http.StatusConflict)
		return
	}
	defer h.scanning.Store(false)

	result, err := h.scanner.Scan(r.Context())
	if err != nil {
		logging.Error("scan failed: %v", err)
		writeJSONError(w, "Scan failed", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, http.StatusOK, ScanResponse{
		Total:      result.Total,
		Added:      result.Added,
		Failed:     result.Failed,
		DurationMs: result.Duration.Milliseconds(),
	})
}
