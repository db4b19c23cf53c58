package handler

import (
	"log/slog"
	"net/http"

	accessSvc "docvault/internal/domain/services/access"
	"docvault/internal/httputil"
)

// PermissionHandler handles explicit grants on documents
type PermissionHandler struct {
	permService accessSvc.PermissionService
	logger      *slog.Logger
}

// NewPermissionHandler creates a new permission handler
func NewPermissionHandler(permService accessSvc.PermissionService, logger *slog.Logger) *PermissionHandler {
	return &PermissionHandler{
		permService: permService,
		logger:      logger,
	}
}

// ListPermissions lists a document's direct grants
// GET /api/documents/{id}/permissions
func (h *PermissionHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	docID, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	grants, err := h.permService.ListPermissions(r.Context(), httputil.GetUserID(r), docID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, grants)
}

// MyPermissions reports the caller's live direct levels and ownership
// GET /api/documents/{id}/permissions/me
func (h *PermissionHandler) MyPermissions(w http.ResponseWriter, r *http.Request) {
	docID, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	effective, err := h.permService.MyPermissions(r.Context(), httputil.GetUserID(r), docID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, effective)
}

// GrantPermission grants a level to a user
// POST /api/documents/{id}/permissions
func (h *PermissionHandler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	docID, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	var req accessSvc.GrantPermissionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.GrantedBy = httputil.GetUserID(r)
	req.DocumentID = docID

	grant, err := h.permService.GrantPermission(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, grant)
}

// RevokePermission removes every grant of one level from a user
// DELETE /api/documents/{id}/permissions/{user_id}/{permission}
func (h *PermissionHandler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	docID, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}
	targetID, ok := PathParam(w, r, "user_id", "User ID")
	if !ok {
		return
	}

	err := h.permService.RevokePermission(r.Context(), &accessSvc.RevokePermissionRequest{
		RequestedBy:  httputil.GetUserID(r),
		DocumentID:   docID,
		TargetUserID: targetID,
		Permission:   r.PathValue("permission"),
	})
	if err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListGroupPermissions lists a document's group grants
// GET /api/documents/{id}/group-permissions
func (h *PermissionHandler) ListGroupPermissions(w http.ResponseWriter, r *http.Request) {
	docID, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	grants, err := h.permService.ListGroupPermissions(r.Context(), httputil.GetUserID(r), docID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, grants)
}

// GrantGroupPermission grants a level to every member of a group
// POST /api/documents/{id}/group-permissions
func (h *PermissionHandler) GrantGroupPermission(w http.ResponseWriter, r *http.Request) {
	docID, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	var req accessSvc.GrantGroupPermissionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.GrantedBy = httputil.GetUserID(r)
	req.DocumentID = docID

	grant, err := h.permService.GrantGroupPermission(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, grant)
}

// RevokeGroupPermission removes a group grant
// DELETE /api/documents/{id}/group-permissions/{group_id}/{permission}
func (h *PermissionHandler) RevokeGroupPermission(w http.ResponseWriter, r *http.Request) {
	docID, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}
	groupID, ok := PathParam(w, r, "group_id", "Group ID")
	if !ok {
		return
	}

	err := h.permService.RevokeGroupPermission(r.Context(), &accessSvc.RevokeGroupPermissionRequest{
		RequestedBy: httputil.GetUserID(r),
		DocumentID:  docID,
		GroupID:     groupID,
		Permission:  r.PathValue("permission"),
	})
	if err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
