package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"docvault/internal/domain/models/editor"
	"docvault/internal/domain/services"
	"docvault/internal/httputil"
)

// EditorHandler serves the OnlyOffice integration
type EditorHandler struct {
	editorService services.EditorService
	logger        *slog.Logger
}

// NewEditorHandler creates a new editor handler
func NewEditorHandler(editorService services.EditorService, logger *slog.Logger) *EditorHandler {
	return &EditorHandler{
		editorService: editorService,
		logger:        logger,
	}
}

// GetConfig returns the signed editor config for a document
// GET /api/onlyoffice/{id}/config
func (h *EditorHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	docID, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	var userID, userName string
	if p := httputil.GetPrincipal(r); p != nil {
		userID, userName = p.ID, p.Username
	}

	cfg, err := h.editorService.BuildConfig(r.Context(), userID, userName, docID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, cfg)
}

// Callback receives save and status notifications from the document server.
// The document server expects {"error":0} on success; failures answer
// {"error":1,"message":...} with the mapped status.
// POST /api/onlyoffice/callback/{id}
func (h *EditorHandler) Callback(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("id")

	var cb editor.Callback
	if err := httputil.ParseJSON(w, r, &cb); err != nil {
		httputil.RespondJSON(w, http.StatusBadRequest, editor.CallbackResponse{Error: 1, Message: "invalid callback body"})
		return
	}

	bearer := ""
	if scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " "); found && strings.EqualFold(scheme, "Bearer") {
		bearer = strings.TrimSpace(token)
	}

	resp, err := h.editorService.HandleCallback(r.Context(), docID, &cb, bearer)
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("editor callback failed", "document_id", docID, "status", cb.Status, "error", err)
		} else {
			h.logger.Warn("editor callback rejected", "document_id", docID, "status", cb.Status, "error", err)
		}
		httputil.RespondJSON(w, status, editor.CallbackResponse{Error: 1, Message: msg})
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}
