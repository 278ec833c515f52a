package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/yourorg/roomdesk/internal/service"
)

// maxUploadBytes caps document uploads at 25 MB.
const maxUploadBytes = 25 << 20

// DocumentsHandler handles /api/documents and /api/documents/{id}.
type DocumentsHandler struct {
	documents *service.DocumentService
	logger    *slog.Logger
}

func NewDocumentsHandler(documents *service.DocumentService, logger *slog.Logger) *DocumentsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentsHandler{documents: documents, logger: logger}
}

// Collection handles GET /api/documents and multipart POST /api/documents.
func (h *DocumentsHandler) Collection(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	unitID := actor.UnitID

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"documents": h.documents.List(unitID)})

	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart upload")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file field required")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			h.logger.Error("failed to read upload", slog.String("error", err.Error()))
			writeError(w, http.StatusBadRequest, "failed to read upload")
			return
		}

		doc, err := h.documents.Upload(r.Context(), unitID, actor, header.Filename, r.FormValue("category"), data)
		if err != nil {
			writeError(w, statusForServiceError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, doc)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Item handles PATCH and DELETE /api/documents/{id}.
func (h *DocumentsHandler) Item(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing document id")
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
			writeError(w, http.StatusBadRequest, "status required")
			return
		}
		doc, err := h.documents.SetStatus(r.Context(), actor.UnitID, actor, id, req.Status)
		if err != nil {
			writeError(w, statusForServiceError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, doc)

	case http.MethodDelete:
		if err := h.documents.Delete(r.Context(), actor.UnitID, actor, id); err != nil {
			writeError(w, statusForServiceError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
