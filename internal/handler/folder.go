package handler

import (
	"log/slog"
	"net/http"

	docsysSvc "docvault/internal/domain/services/docsystem"
	"docvault/internal/httputil"
)

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	docService docsysSvc.DocumentService
	logger     *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(docService docsysSvc.DocumentService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		docService: docService,
		logger:     logger,
	}
}

// CreateFolder creates a folder, optionally inside another
// POST /api/folders
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req docsysSvc.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = httputil.GetUserID(r)

	folder, err := h.docService.CreateFolder(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}
