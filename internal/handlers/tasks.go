package handlers

import (
	"net/http"
	"strconv"

	"fotoboek/internal/database"
	"fotoboek/internal/logging"
)

// TaskListResponse is the body of GET /api/tasks.
type TaskListResponse struct {
	Tasks    []database.Task `json:"tasks"`
	ByModule map[string]int  `json:"byModule"`
}

// ListTasks returns the pending tasks in claim order. The optional fileId
// query parameter restricts the list to one file.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		tasks []database.Task
		err   error
	)
	if raw := r.URL.Query().Get("fileId"); raw != "" {
		fileID, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			writeJSONError(w, "Invalid fileId", http.StatusBadRequest)
			return
		}
		tasks, err = h.db.TasksForFile(ctx, fileID)
	} else {
		tasks, err = h.db.ListTasks(ctx)
	}
	if err != nil {
		logging.Error("failed to list tasks: %v", err)
		writeJSONError(w, "Failed to list tasks", http.StatusInternalServerError)
		return
	}

	byModule := make(map[string]int)
	for _, t := range tasks {
		byModule[t.Module]++
	}
	if tasks == nil {
		tasks = []database.Task{}
	}

	writeJSONStatus(w, http.StatusOK, TaskListResponse{Tasks: tasks, ByModule: byModule})
}
