package handler

import "net/http"

// Handlers groups every HTTP handler the API exposes
type Handlers struct {
	Documents   *DocumentHandler
	Folders     *FolderHandler
	Permissions *PermissionHandler
	Shares      *ShareHandler
	Search      *SearchHandler
	Editor      *EditorHandler
	Health      *HealthHandler
}

// RegisterRoutes mounts the API on mux. /metrics is mounted by the caller.
func RegisterRoutes(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /health", h.Health.Health)

	// Documents
	mux.HandleFunc("GET /api/documents", h.Documents.ListDocuments)
	mux.HandleFunc("POST /api/documents/upload", h.Documents.UploadDocument)
	mux.HandleFunc("GET /api/documents/{id}", h.Documents.GetDocument)
	mux.HandleFunc("PUT /api/documents/{id}", h.Documents.UpdateDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", h.Documents.DeleteDocument)
	mux.HandleFunc("GET /api/documents/{id}/download", h.Documents.DownloadDocument)
	mux.HandleFunc("POST /api/documents/{id}/move", h.Documents.MoveDocument)
	mux.HandleFunc("GET /api/documents/{id}/versions", h.Documents.ListVersions)
	mux.HandleFunc("GET /api/documents/{id}/access-logs", h.Documents.ListAccessLogs)

	// Folders
	mux.HandleFunc("POST /api/folders", h.Folders.CreateFolder)

	// Permissions
	mux.HandleFunc("GET /api/documents/{id}/permissions", h.Permissions.ListPermissions)
	mux.HandleFunc("GET /api/documents/{id}/permissions/me", h.Permissions.MyPermissions)
	mux.HandleFunc("POST /api/documents/{id}/permissions", h.Permissions.GrantPermission)
	mux.HandleFunc("DELETE /api/documents/{id}/permissions/{user_id}/{permission}", h.Permissions.RevokePermission)
	mux.HandleFunc("GET /api/documents/{id}/group-permissions", h.Permissions.ListGroupPermissions)
	mux.HandleFunc("POST /api/documents/{id}/group-permissions", h.Permissions.GrantGroupPermission)
	mux.HandleFunc("DELETE /api/documents/{id}/group-permissions/{group_id}/{permission}", h.Permissions.RevokeGroupPermission)

	// Share links
	mux.HandleFunc("POST /api/documents/{id}/shares", h.Shares.CreateShareLink)
	mux.HandleFunc("GET /api/documents/{id}/shares", h.Shares.ListShareLinks)
	mux.HandleFunc("DELETE /api/documents/{id}/shares/{share_id}", h.Shares.RevokeShareLink)
	mux.HandleFunc("GET /api/shares/access/{token}", h.Shares.RedeemShareLinkGet)
	mux.HandleFunc("POST /api/shares/access/{token}", h.Shares.RedeemShareLinkPost)

	// Search
	mux.HandleFunc("GET /api/search", h.Search.Search)

	// Editor
	mux.HandleFunc("GET /api/onlyoffice/{id}/config", h.Editor.GetConfig)
	mux.HandleFunc("POST /api/onlyoffice/callback/{id}", h.Editor.Callback)
}
