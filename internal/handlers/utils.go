package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"fotoboek/internal/database"
	"fotoboek/internal/logging"

	"github.com/gorilla/mux"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Encoding errors are only logged since the status line is already sent.
func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONStatus writes v as JSON with the given status code.
func writeJSONStatus(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONStatus(w, statusCode, map[string]string{"error": message})
}

// fileFromRequest loads the file named by the {id} route variable. It writes
// the error response itself and returns nil when the lookup fails.
func (h *Handlers) fileFromRequest(w http.ResponseWriter, r *http.Request) *database.File {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, "Invalid file id", http.StatusBadRequest)
		return nil
	}

	file, err := h.db.GetFile(r.Context(), id)
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeJSONError(w, "File not found", http.StatusNotFound)
		return nil
	case err != nil:
		logging.Error("failed to load file %d: %v", id, err)
		writeJSONError(w, "Failed to load file", http.StatusInternalServerError)
		return nil
	}
	return file
}
