package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"docvault/internal/config"
	docsysSvc "docvault/internal/domain/services/docsystem"
	"docvault/internal/httputil"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file
const multipartMemory = 32 << 20

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	docService       docsysSvc.DocumentService
	lifecycleService docsysSvc.LifecycleService
	logger           *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(
	docService docsysSvc.DocumentService,
	lifecycleService docsysSvc.LifecycleService,
	logger *slog.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		docService:       docService,
		lifecycleService: lifecycleService,
		logger:           logger,
	}
}

// ListDocuments lists the caller's documents in a folder (root by default)
// GET /api/documents?folder_id=&limit=&offset=
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryInt(r, "limit", config.DefaultPageSize)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := httputil.QueryInt(r, "offset", 0)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	docs, err := h.docService.ListDocuments(r.Context(), &docsysSvc.ListDocumentsRequest{
		UserID:   httputil.GetUserID(r),
		FolderID: optionalQuery(r, "folder_id"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}

// UploadDocument stores a file sent as multipart/form-data
// POST /api/documents/upload
//
// Form fields:
//   - file: required
//   - parent_folder_id, description: optional
//   - tags: optional, repeated or comma-separated
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	// Allow a little room for the multipart envelope around the file
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "file exceeds the 100MB upload limit")
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > config.MaxUploadSize {
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, "file exceeds the 100MB upload limit")
		return
	}

	req := &docsysSvc.UploadDocumentRequest{
		UserID:         httputil.GetUserID(r),
		FileName:       header.Filename,
		ContentType:    header.Header.Get("Content-Type"),
		Size:           header.Size,
		Content:        file,
		ParentFolderID: formValue(r, "parent_folder_id"),
		Description:    formValue(r, "description"),
		Tags:           formTags(r),
	}

	doc, err := h.docService.UploadDocument(r.Context(), req)
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Info("document uploaded",
		"document_id", doc.ID,
		"size", doc.FileSize,
		"mime_type", doc.MimeType,
	)
	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// GetDocument retrieves a document by ID
// GET /api/documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	doc, err := h.docService.GetDocument(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// UpdateDocument changes name, description or tags
// PUT /api/documents/{id}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	var req docsysSvc.UpdateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doc, err := h.docService.UpdateDocument(r.Context(), httputil.GetUserID(r), id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// DeleteDocument soft-deletes a document or folder
// DELETE /api/documents/{id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	if err := h.lifecycleService.SoftDelete(r.Context(), httputil.GetUserID(r), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DownloadDocument returns a presigned URL for the current blob.
// With ?redirect=true the client is sent straight to it.
// GET /api/documents/{id}/download
func (h *DocumentHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	link, err := h.docService.DownloadDocument(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	if r.URL.Query().Get("redirect") == "true" {
		http.Redirect(w, r, link.URL, http.StatusFound)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, link)
}

// moveDocumentBody requires target_folder_id to be present; null moves to the root
type moveDocumentBody struct {
	TargetFolderID httputil.OptionalString `json:"target_folder_id"`
}

// MoveDocument moves a document under another folder
// POST /api/documents/{id}/move
func (h *DocumentHandler) MoveDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	var body moveDocumentBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !body.TargetFolderID.Present {
		httputil.RespondError(w, http.StatusBadRequest, "target_folder_id is required (null moves to the root)")
		return
	}

	doc, err := h.docService.MoveDocument(r.Context(), httputil.GetUserID(r), id, &docsysSvc.MoveDocumentRequest{
		TargetFolderID: body.TargetFolderID.Value,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// ListVersions returns a document's version history, newest first
// GET /api/documents/{id}/versions
func (h *DocumentHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	versions, err := h.docService.ListVersions(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, versions)
}

// ListAccessLogs returns the newest audit entries for a document
// GET /api/documents/{id}/access-logs
func (h *DocumentHandler) ListAccessLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	logs, err := h.docService.ListAccessLogs(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, logs)
}

func formValue(r *http.Request, name string) *string {
	if v := strings.TrimSpace(r.FormValue(name)); v != "" {
		return &v
	}
	return nil
}

func formTags(r *http.Request) []string {
	var tags []string
	for _, raw := range r.MultipartForm.Value["tags"] {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}
