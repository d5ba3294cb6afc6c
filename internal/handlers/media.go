package handlers

import (
	"errors"
	"net/http"
	"os"

	"fotoboek/internal/database"
	"fotoboek/internal/filesystem"
	"fotoboek/internal/logging"
	"fotoboek/internal/mediatypes"
	"fotoboek/internal/storage"
)

const immutableCache = "public, max-age=31536000, immutable"

// GetImage serves a stored preview. size is large (default) or small.
func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	sizeParam := r.URL.Query().Get("size")
	if sizeParam == "" {
		sizeParam = string(storage.PreviewLarge)
	}
	size, err := storage.ParsePreviewSize(sizeParam)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	hash := h.hashFromRequest(w, r)
	if hash == "" {
		return
	}

	path, err := h.layout.PreviewPath(hash, size)
	if err != nil {
		logging.Error("bad preview path for hash %q: %v", hash, err)
		writeJSONError(w, "Failed to resolve preview", http.StatusInternalServerError)
		return
	}
	h.serveBlob(w, r, path, "image/jpeg", "Preview not available")
}

// GetVideo serves the transcoded WebM of a video file.
func (h *Handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	file := h.fileFromRequest(w, r)
	if file == nil {
		return
	}
	if file.FileType != mediatypes.FileTypeVideo {
		writeJSONError(w, "File is not a video", http.StatusNotFound)
		return
	}

	hash := h.hashOf(w, r, file)
	if hash == "" {
		return
	}

	path, err := h.layout.VideoPath(hash)
	if err != nil {
		logging.Error("bad video path for hash %q: %v", hash, err)
		writeJSONError(w, "Failed to resolve video", http.StatusInternalServerError)
		return
	}
	h.serveBlob(w, r, path, mediatypes.GetMimeType("."+storage.VideoExt), "Video not transcoded yet")
}

func (h *Handlers) hashFromRequest(w http.ResponseWriter, r *http.Request) string {
	file := h.fileFromRequest(w, r)
	if file == nil {
		return ""
	}
	return h.hashOf(w, r, file)
}

// hashOf returns the content hash of file, writing a 404 when metadata has
// not been extracted yet.
func (h *Handlers) hashOf(w http.ResponseWriter, r *http.Request, file *database.File) string {
	meta, err := h.db.GetFileMetadata(r.Context(), file.ID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeJSONError(w, "Metadata not extracted yet", http.StatusNotFound)
		return ""
	case err != nil:
		logging.Error("failed to load metadata of file %d: %v", file.ID, err)
		writeJSONError(w, "Failed to load metadata", http.StatusInternalServerError)
		return ""
	}
	return meta.Hash
}

// serveBlob serves a content-addressed file with range support.
func (h *Handlers) serveBlob(w http.ResponseWriter, r *http.Request, path, contentType, missing string) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSONError(w, missing, http.StatusNotFound)
			return
		}
		logging.Error("failed to open %s: %v", path, err)
		writeJSONError(w, "Failed to open file", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		logging.Error("failed to stat %s: %v", path, err)
		writeJSONError(w, "Failed to open file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", immutableCache)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
