package handler

import (
	"log/slog"
	"net/http"

	docsysSvc "docvault/internal/domain/services/docsystem"
	"docvault/internal/httputil"
)

// SearchHandler handles full-text search requests
type SearchHandler struct {
	docService docsysSvc.DocumentService
	logger     *slog.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(docService docsysSvc.DocumentService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		docService: docService,
		logger:     logger,
	}
}

// Search runs a ranked query over documents the caller can read
// GET /api/search?q=&limit=&offset=&owner_id=&mime_type=&is_folder=
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := httputil.QueryInt(r, "offset", 0)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	isFolder, err := httputil.QueryBool(r, "is_folder")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.docService.SearchDocuments(r.Context(), httputil.GetUserID(r), &docsysSvc.SearchDocumentsRequest{
		Query:    q.Get("q"),
		OwnerID:  q.Get("owner_id"),
		MimeType: q.Get("mime_type"),
		IsFolder: isFolder,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, results)
}
