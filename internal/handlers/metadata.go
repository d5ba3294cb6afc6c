package handlers

import (
	"errors"
	"net/http"

	"fotoboek/internal/database"
	"fotoboek/internal/logging"
)

// MetadataResponse is the body of GET /api/metadata/{id}. Metadata is nil
// until the metadata module has run for the file.
type MetadataResponse struct {
	File         *database.File         `json:"file"`
	Metadata     *database.FileMetadata `json:"metadata"`
	PendingTasks []database.Task        `json:"pendingTasks"`
}

// GetMetadata returns a file together with its metadata and pending tasks.
func (h *Handlers) GetMetadata(w http.ResponseWriter, r *http.Request) {
	file := h.fileFromRequest(w, r)
	if file == nil {
		return
	}
	ctx := r.Context()

	meta, err := h.db.GetFileMetadata(ctx, file.ID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		logging.Error("failed to load metadata of file %d: %v", file.ID, err)
		writeJSONError(w, "Failed to load metadata", http.StatusInternalServerError)
		return
	}

	tasks, err := h.db.TasksForFile(ctx, file.ID)
	if err != nil {
		logging.Error("failed to load tasks of file %d: %v", file.ID, err)
		writeJSONError(w, "Failed to load tasks", http.StatusInternalServerError)
		return
	}
	if tasks == nil {
		tasks = []database.Task{}
	}

	writeJSONStatus(w, http.StatusOK, MetadataResponse{File: file, Metadata: meta, PendingTasks: tasks})
}
