package handler

import (
	"context"
	"net/http"
	"net/http/httptest"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/models/access"
	"docvault/internal/domain/models/docsystem"
	"docvault/internal/domain/models/editor"
	accessSvc "docvault/internal/domain/services/access"
	docsysSvc "docvault/internal/domain/services/docsystem"
	"docvault/internal/httputil"
)

const (
	aliceID = "11111111-1111-4111-8111-111111111111"
	docID   = "22222222-2222-4222-8222-222222222222"
	otherID = "33333333-3333-4333-8333-333333333333"
)

// stubDocuments implements DocumentService and LifecycleService with
// overridable hooks; unset hooks report ErrNotFound
type stubDocuments struct {
	upload   func(*docsysSvc.UploadDocumentRequest) (*docsystem.Document, error)
	get      func(userID, id string) (*docsystem.Document, error)
	list     func(*docsysSvc.ListDocumentsRequest) ([]docsystem.Document, error)
	move     func(userID, id string, req *docsysSvc.MoveDocumentRequest) (*docsystem.Document, error)
	download func(userID, id string) (*docsysSvc.DownloadLink, error)
	search   func(userID string, req *docsysSvc.SearchDocumentsRequest) (*docsystem.SearchResults, error)
	del      func(userID, id string) error
	folder   func(*docsysSvc.CreateFolderRequest) (*docsystem.Document, error)
}

func (s *stubDocuments) CreateFolder(_ context.Context, req *docsysSvc.CreateFolderRequest) (*docsystem.Document, error) {
	if s.folder == nil {
		return nil, domain.ErrNotFound
	}
	return s.folder(req)
}

func (s *stubDocuments) UploadDocument(_ context.Context, req *docsysSvc.UploadDocumentRequest) (*docsystem.Document, error) {
	if s.upload == nil {
		return nil, domain.ErrNotFound
	}
	return s.upload(req)
}

func (s *stubDocuments) GetDocument(_ context.Context, userID, id string) (*docsystem.Document, error) {
	if s.get == nil {
		return nil, domain.ErrNotFound
	}
	return s.get(userID, id)
}

func (s *stubDocuments) ListDocuments(_ context.Context, req *docsysSvc.ListDocumentsRequest) ([]docsystem.Document, error) {
	if s.list == nil {
		return nil, domain.ErrNotFound
	}
	return s.list(req)
}

func (s *stubDocuments) UpdateDocument(context.Context, string, string, *docsysSvc.UpdateDocumentRequest) (*docsystem.Document, error) {
	return nil, domain.ErrNotFound
}

func (s *stubDocuments) MoveDocument(_ context.Context, userID, id string, req *docsysSvc.MoveDocumentRequest) (*docsystem.Document, error) {
	if s.move == nil {
		return nil, domain.ErrNotFound
	}
	return s.move(userID, id, req)
}

func (s *stubDocuments) DownloadDocument(_ context.Context, userID, id string) (*docsysSvc.DownloadLink, error) {
	if s.download == nil {
		return nil, domain.ErrNotFound
	}
	return s.download(userID, id)
}

func (s *stubDocuments) ListVersions(context.Context, string, string) ([]docsystem.DocumentVersion, error) {
	return nil, domain.ErrNotFound
}

func (s *stubDocuments) ListAccessLogs(context.Context, string, string) ([]docsystem.AccessLog, error) {
	return nil, &domain.ForbiddenError{Message: "admin permission required"}
}

func (s *stubDocuments) SearchDocuments(_ context.Context, userID string, req *docsysSvc.SearchDocumentsRequest) (*docsystem.SearchResults, error) {
	if s.search == nil {
		return nil, domain.ErrNotFound
	}
	return s.search(userID, req)
}

func (s *stubDocuments) AcceptNewVersion(context.Context, *docsysSvc.NewVersionRequest) (*docsystem.Document, error) {
	return nil, domain.ErrNotFound
}

func (s *stubDocuments) SoftDelete(_ context.Context, userID, id string) error {
	if s.del == nil {
		return domain.ErrNotFound
	}
	return s.del(userID, id)
}

// stubPermissions records the last revoke request
type stubPermissions struct {
	grant        func(*accessSvc.GrantPermissionRequest) (*access.Grant, error)
	lastRevoke   *accessSvc.RevokePermissionRequest
	revokeErr    error
	myPerms      *access.EffectivePermissions
	groupRevoked *accessSvc.RevokeGroupPermissionRequest
}

func (s *stubPermissions) GrantPermission(_ context.Context, req *accessSvc.GrantPermissionRequest) (*access.Grant, error) {
	return s.grant(req)
}

func (s *stubPermissions) RevokePermission(_ context.Context, req *accessSvc.RevokePermissionRequest) error {
	s.lastRevoke = req
	return s.revokeErr
}

func (s *stubPermissions) ListPermissions(context.Context, string, string) ([]access.Grant, error) {
	return []access.Grant{}, nil
}

func (s *stubPermissions) GrantGroupPermission(context.Context, *accessSvc.GrantGroupPermissionRequest) (*access.GroupGrant, error) {
	return nil, domain.ErrNotFound
}

func (s *stubPermissions) RevokeGroupPermission(_ context.Context, req *accessSvc.RevokeGroupPermissionRequest) error {
	s.groupRevoked = req
	return nil
}

func (s *stubPermissions) ListGroupPermissions(context.Context, string, string) ([]access.GroupGrant, error) {
	return []access.GroupGrant{}, nil
}

func (s *stubPermissions) MyPermissions(context.Context, string, string) (*access.EffectivePermissions, error) {
	if s.myPerms == nil {
		return nil, domain.ErrNotFound
	}
	return s.myPerms, nil
}

// stubShares captures redemption requests
type stubShares struct {
	created  *accessSvc.CreateShareLinkRequest
	redeemed *accessSvc.RedeemShareLinkRequest
	redeem   func(*accessSvc.RedeemShareLinkRequest) (*accessSvc.SharedDocument, error)
	links    []access.ShareLink
}

func (s *stubShares) CreateShareLink(_ context.Context, req *accessSvc.CreateShareLinkRequest) (*access.ShareLink, error) {
	s.created = req
	hash := "$2a$hash"
	return &access.ShareLink{
		ID:           otherID,
		DocumentID:   req.DocumentID,
		Token:        "tok",
		CreatedBy:    req.UserID,
		Permission:   req.Permission,
		PasswordHash: &hash,
	}, nil
}

func (s *stubShares) ListShareLinks(context.Context, string, string) ([]access.ShareLink, error) {
	return s.links, nil
}

func (s *stubShares) RevokeShareLink(context.Context, string, string, string) error {
	return nil
}

func (s *stubShares) RedeemShareLink(_ context.Context, req *accessSvc.RedeemShareLinkRequest) (*accessSvc.SharedDocument, error) {
	s.redeemed = req
	return s.redeem(req)
}

// stubEditor returns canned results
type stubEditor struct {
	gotUser   string
	gotName   string
	gotBearer string
	callback  func(*editor.Callback) (*editor.CallbackResponse, error)
}

func (s *stubEditor) BuildConfig(_ context.Context, userID, userName, documentID string) (*editor.Config, error) {
	s.gotUser, s.gotName = userID, userName
	return &editor.Config{DocumentType: "word", Document: editor.DocumentConfig{Key: documentID + "-1"}}, nil
}

func (s *stubEditor) HandleCallback(_ context.Context, _ string, cb *editor.Callback, bearer string) (*editor.CallbackResponse, error) {
	s.gotBearer = bearer
	return s.callback(cb)
}

// testServer mounts every route over the given stubs. Requests are
// authenticated as alice unless anonymous is set.
type testServer struct {
	mux *http.ServeMux
}

func newTestServer(docs *stubDocuments, perms *stubPermissions, shares *stubShares, ed *stubEditor) *testServer {
	logger := discardLogger()
	if docs == nil {
		docs = &stubDocuments{}
	}
	if perms == nil {
		perms = &stubPermissions{}
	}
	if shares == nil {
		shares = &stubShares{}
	}
	if ed == nil {
		ed = &stubEditor{}
	}

	mux := http.NewServeMux()
	RegisterRoutes(mux, &Handlers{
		Documents:   NewDocumentHandler(docs, docs, logger),
		Folders:     NewFolderHandler(docs, logger),
		Permissions: NewPermissionHandler(perms, logger),
		Shares:      NewShareHandler(shares, logger),
		Search:      NewSearchHandler(docs, logger),
		Editor:      NewEditorHandler(ed, logger),
		Health:      NewHealthHandler(nil),
	})
	return &testServer{mux: mux}
}

func (s *testServer) do(req *http.Request, anonymous bool) *httptest.ResponseRecorder {
	if !anonymous {
		req = httputil.WithPrincipal(req, &models.Principal{ID: aliceID, Username: "alice"})
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}
