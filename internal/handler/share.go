package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"docvault/internal/domain/models/access"
	accessSvc "docvault/internal/domain/services/access"
	"docvault/internal/httputil"
)

// SharePasswordHeader carries the password for GET redemptions
const SharePasswordHeader = "X-Share-Password"

// ShareHandler handles share-link management and redemption
type ShareHandler struct {
	shareService accessSvc.ShareService
	logger       *slog.Logger
}

// NewShareHandler creates a new share handler
func NewShareHandler(shareService accessSvc.ShareService, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		logger:       logger,
	}
}

// CreateShareLink issues a new link
// POST /api/documents/{id}/shares
func (h *ShareHandler) CreateShareLink(w http.ResponseWriter, r *http.Request) {
	docID, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	var req accessSvc.CreateShareLinkRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = httputil.GetUserID(r)
	req.DocumentID = docID

	link, err := h.shareService.CreateShareLink(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, access.NewShareLinkView(link))
}

// ListShareLinks lists a document's links
// GET /api/documents/{id}/shares
func (h *ShareHandler) ListShareLinks(w http.ResponseWriter, r *http.Request) {
	docID, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	links, err := h.shareService.ListShareLinks(r.Context(), httputil.GetUserID(r), docID)
	if err != nil {
		handleError(w, err)
		return
	}

	views := make([]access.ShareLinkView, 0, len(links))
	for i := range links {
		views = append(views, access.NewShareLinkView(&links[i]))
	}
	httputil.RespondJSON(w, http.StatusOK, views)
}

// RevokeShareLink deletes a link
// DELETE /api/documents/{id}/shares/{share_id}
func (h *ShareHandler) RevokeShareLink(w http.ResponseWriter, r *http.Request) {
	docID, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}
	shareID, ok := PathParam(w, r, "share_id", "Share ID")
	if !ok {
		return
	}

	if err := h.shareService.RevokeShareLink(r.Context(), httputil.GetUserID(r), docID, shareID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RedeemShareLinkGet redeems a link, reading the password from a header
// GET /api/shares/access/{token}
func (h *ShareHandler) RedeemShareLinkGet(w http.ResponseWriter, r *http.Request) {
	req := &accessSvc.RedeemShareLinkRequest{Token: r.PathValue("token")}
	if pw := r.Header.Get(SharePasswordHeader); pw != "" {
		req.Password = &pw
	}
	h.redeem(w, r, req)
}

// RedeemShareLinkPost redeems a link, reading the password from the JSON body.
// An empty body means no password.
// POST /api/shares/access/{token}
func (h *ShareHandler) RedeemShareLinkPost(w http.ResponseWriter, r *http.Request) {
	var req accessSvc.RedeemShareLinkRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Token = r.PathValue("token")
	h.redeem(w, r, &req)
}

func (h *ShareHandler) redeem(w http.ResponseWriter, r *http.Request, req *accessSvc.RedeemShareLinkRequest) {
	if req.Token == "" {
		httputil.RespondError(w, http.StatusBadRequest, "share token is required")
		return
	}

	shared, err := h.shareService.RedeemShareLink(r.Context(), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, shared)
}
