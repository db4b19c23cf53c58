package docsystem

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"docvault/internal/domain"
	"docvault/internal/domain/models/access"
	docsysSvc "docvault/internal/domain/services/docsystem"
	"docvault/internal/testutil/memstore"
)

// ============================================================================
// Upload and folders
// ============================================================================

func TestUploadDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.docs.UploadDocument(ctx, &docsysSvc.UploadDocumentRequest{
		UserID:      "owner",
		FileName:    "  notes.txt ",
		ContentType: "text/plain",
		Size:        -1,
		Content:     strings.NewReader("hello"),
		Tags:        []string{"a", " a", "", "b"},
	})
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}

	if doc.Name != "notes.txt" {
		t.Errorf("Name = %q, want trimmed name", doc.Name)
	}
	if doc.FileSize != 5 {
		t.Errorf("FileSize = %d, want 5 (counted from content)", doc.FileSize)
	}
	if doc.Version != 1 {
		t.Errorf("Version = %d, want 1", doc.Version)
	}
	if len(doc.Tags) != 2 {
		t.Errorf("Tags = %v, want de-duplicated [a b]", doc.Tags)
	}
	if !f.blobs.Has(doc.FilePath) {
		t.Errorf("blob %s was not stored", doc.FilePath)
	}
	if _, ok := f.store.Indexed[doc.ID]; !ok {
		t.Error("document was not indexed")
	}
	if len(f.store.Versions) != 1 || f.store.Versions[0].Version != 1 {
		t.Errorf("expected a version 1 row, got %+v", f.store.Versions)
	}
	if got := f.store.LogActions(doc.ID); len(got) != 1 || got[0] != actionUpload {
		t.Errorf("access log = %v, want [upload]", got)
	}
}

func TestUploadDocument_ParentChecks(t *testing.T) {
	f := newFixture(t)
	folder := f.addFolder("owner", nil)
	file := f.addFile("owner", "k/file")
	f.grant(folder, "reader", access.LevelRead)

	tests := []struct {
		name    string
		user    string
		parent  *string
		wantErr error
	}{
		{name: "anonymous", user: "", wantErr: domain.ErrUnauthorized},
		{name: "read is not enough", user: "reader", parent: &folder, wantErr: domain.ErrForbidden},
		{name: "missing parent", user: "owner", parent: strPtr("missing"), wantErr: domain.ErrNotFound},
		{name: "parent is a file", user: "owner", parent: &file, wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.docs.UploadDocument(context.Background(), &docsysSvc.UploadDocumentRequest{
				UserID:         tt.user,
				FileName:       "x.txt",
				Content:        strings.NewReader("x"),
				ParentFolderID: tt.parent,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if n := f.blobs.Count(); n != 0 {
		t.Errorf("rejected uploads stored %d blobs", n)
	}
}

func TestUploadDocument_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  docsysSvc.UploadDocumentRequest
	}{
		{name: "empty name", req: docsysSvc.UploadDocumentRequest{FileName: " ", Content: strings.NewReader("x")}},
		{name: "slash in name", req: docsysSvc.UploadDocumentRequest{FileName: "a/b.txt", Content: strings.NewReader("x")}},
		{name: "no content", req: docsysSvc.UploadDocumentRequest{FileName: "a.txt"}},
		{name: "too large", req: docsysSvc.UploadDocumentRequest{FileName: "a.txt", Size: 200 << 20, Content: strings.NewReader("x")}},
		{name: "tag too long", req: docsysSvc.UploadDocumentRequest{FileName: "a.txt", Content: strings.NewReader("x"), Tags: []string{strings.Repeat("t", 65)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			req.UserID = "owner"
			if _, err := f.docs.UploadDocument(context.Background(), &req); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("error = %v, want validation error", err)
			}
		})
	}
}

func TestUploadDocument_BlobFailure(t *testing.T) {
	f := newFixture(t)
	f.blobs.FailPut = true

	_, err := f.docs.UploadDocument(context.Background(), &docsysSvc.UploadDocumentRequest{
		UserID:   "owner",
		FileName: "a.txt",
		Content:  strings.NewReader("x"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(f.store.Documents) != 0 {
		t.Errorf("no document row should exist, got %d", len(f.store.Documents))
	}
}

func TestWrites_SearchIndexFailureFailsTheOperation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	existing := f.addFile("owner", "k/file")
	f.store.FailIndex = true

	doc, err := f.docs.UploadDocument(ctx, &docsysSvc.UploadDocumentRequest{
		UserID:   "owner",
		FileName: "a.txt",
		Content:  strings.NewReader("hello"),
		Size:     5,
	})
	if !errors.Is(err, memstore.ErrInjected) || doc != nil {
		t.Errorf("upload: doc = %v, error = %v, want injected failure", doc, err)
	}
	if n := f.blobs.Count(); n != 0 {
		t.Errorf("upload left %d blobs behind", n)
	}

	folder, err := f.docs.CreateFolder(ctx, &docsysSvc.CreateFolderRequest{UserID: "owner", Name: "Reports"})
	if !errors.Is(err, memstore.ErrInjected) || folder != nil {
		t.Errorf("create folder: folder = %v, error = %v, want injected failure", folder, err)
	}

	updated, err := f.docs.UpdateDocument(ctx, "owner", existing, &docsysSvc.UpdateDocumentRequest{Name: strPtr("b.txt")})
	if !errors.Is(err, memstore.ErrInjected) || updated != nil {
		t.Errorf("update: doc = %v, error = %v, want injected failure", updated, err)
	}

	if f.tx.Rollbacks != 3 || f.tx.Commits != 0 {
		t.Errorf("commits/rollbacks = %d/%d, want 0/3", f.tx.Commits, f.tx.Rollbacks)
	}
	if actions := f.store.LogActions(existing); len(actions) != 0 {
		t.Errorf("failed update was audited: %v", actions)
	}
}

func TestCreateFolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	folder, err := f.docs.CreateFolder(ctx, &docsysSvc.CreateFolderRequest{UserID: "owner", Name: "Reports"})
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if !folder.IsFolder || folder.FilePath != "" {
		t.Errorf("unexpected folder row: %+v", folder)
	}
	if _, ok := f.store.Indexed[folder.ID]; !ok {
		t.Error("folder was not indexed")
	}

	child, err := f.docs.CreateFolder(ctx, &docsysSvc.CreateFolderRequest{UserID: "owner", Name: "2024", ParentFolderID: &folder.ID})
	if err != nil {
		t.Fatalf("CreateFolder child: %v", err)
	}
	if child.ParentFolderID == nil || *child.ParentFolderID != folder.ID {
		t.Errorf("child parent = %v, want %s", child.ParentFolderID, folder.ID)
	}

	if _, err := f.docs.CreateFolder(ctx, &docsysSvc.CreateFolderRequest{UserID: "owner", Name: "a/b"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("slash name: error = %v, want validation", err)
	}
	if _, err := f.docs.CreateFolder(ctx, &docsysSvc.CreateFolderRequest{UserID: "other", Name: "x", ParentFolderID: &folder.ID}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("foreign parent: error = %v, want forbidden", err)
	}
}

// ============================================================================
// Reads
// ============================================================================

func TestGetDocument(t *testing.T) {
	f := newFixture(t)
	docID := f.addFile("owner", "k/file")
	f.grant(docID, "reader", access.LevelRead)
	f.grant(docID, "admin", access.LevelAdmin)

	tests := []struct {
		name    string
		user    string
		docID   string
		wantErr error
	}{
		{name: "owner", user: "owner", docID: docID},
		{name: "reader", user: "reader", docID: docID},
		{name: "admin does not imply read", user: "admin", docID: docID, wantErr: domain.ErrForbidden},
		{name: "stranger", user: "stranger", docID: docID, wantErr: domain.ErrForbidden},
		{name: "missing", user: "owner", docID: "missing", wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := f.docs.GetDocument(context.Background(), tt.user, tt.docID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if doc.ID != tt.docID {
				t.Errorf("ID = %s, want %s", doc.ID, tt.docID)
			}
		})
	}

	if got := f.store.LogActions(docID); len(got) != 2 {
		t.Errorf("expected two read log rows, got %v", got)
	}
}

func TestListDocuments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	folder := f.addFolder("owner", nil)
	f.store.AddDocument(plainDoc("owner", &folder))
	f.store.AddDocument(plainDoc("owner", nil))
	f.store.AddDocument(plainDoc("someone-else", nil))

	root, err := f.docs.ListDocuments(ctx, &docsysSvc.ListDocumentsRequest{UserID: "owner"})
	if err != nil {
		t.Fatalf("ListDocuments root: %v", err)
	}
	if len(root) != 2 {
		t.Errorf("root listing = %d docs, want 2 (folder and own file)", len(root))
	}

	children, err := f.docs.ListDocuments(ctx, &docsysSvc.ListDocumentsRequest{UserID: "owner", FolderID: &folder})
	if err != nil {
		t.Fatalf("ListDocuments folder: %v", err)
	}
	if len(children) != 1 {
		t.Errorf("folder listing = %d docs, want 1", len(children))
	}

	if _, err := f.docs.ListDocuments(ctx, &docsysSvc.ListDocumentsRequest{UserID: "stranger", FolderID: &folder}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("stranger listing: error = %v, want forbidden", err)
	}
}

func TestDeletedFolder_OrphansChildren(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	folder := f.addFolder("owner", nil)
	child := f.store.AddDocument(plainDoc("owner", &folder))

	if err := f.lifecycle.SoftDelete(ctx, "owner", folder); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	if _, err := f.docs.ListDocuments(ctx, &docsysSvc.ListDocumentsRequest{UserID: "owner", FolderID: &folder}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("listing deleted folder: error = %v, want not found", err)
	}

	doc, err := f.docs.GetDocument(ctx, "owner", child)
	if err != nil {
		t.Fatalf("child should stay addressable: %v", err)
	}
	if doc.ParentFolderID == nil || *doc.ParentFolderID != folder {
		t.Errorf("child parent changed to %v", doc.ParentFolderID)
	}

	other := f.addFile("owner", "k/other")
	if _, err := f.docs.MoveDocument(ctx, "owner", other, &docsysSvc.MoveDocumentRequest{TargetFolderID: &folder}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("move into deleted folder: error = %v, want not found", err)
	}
}

// ============================================================================
// Mutations
// ============================================================================

func TestUpdateDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	docID := f.addFile("owner", "k/file")
	f.grant(docID, "reader", access.LevelRead)
	f.grant(docID, "writer", access.LevelWrite)

	if _, err := f.docs.UpdateDocument(ctx, "owner", docID, &docsysSvc.UpdateDocumentRequest{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty update: error = %v, want validation", err)
	}
	if _, err := f.docs.UpdateDocument(ctx, "reader", docID, &docsysSvc.UpdateDocumentRequest{Name: strPtr("x")}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("reader update: error = %v, want forbidden", err)
	}

	doc, err := f.docs.UpdateDocument(ctx, "writer", docID, &docsysSvc.UpdateDocumentRequest{
		Name: strPtr("renamed.docx"),
		Tags: []string{"q3"},
	})
	if err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}
	if doc.Name != "renamed.docx" || len(doc.Tags) != 1 {
		t.Errorf("unexpected document after update: %+v", doc)
	}
	if indexed := f.store.Indexed[docID]; indexed == nil || indexed.Name != "renamed.docx" {
		t.Errorf("search index was not refreshed: %+v", indexed)
	}
}

func TestMoveDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	outer := f.addFolder("owner", nil)
	inner := f.addFolder("owner", &outer)
	foreign := f.addFolder("someone-else", nil)
	file := f.addFile("owner", "k/file")

	tests := []struct {
		name    string
		docID   string
		target  *string
		wantErr error
	}{
		{name: "into itself", docID: outer, target: &outer, wantErr: domain.ErrValidation},
		{name: "into descendant", docID: outer, target: &inner, wantErr: domain.ErrValidation},
		{name: "into unwritable folder", docID: file, target: &foreign, wantErr: domain.ErrForbidden},
		{name: "into a file", docID: inner, target: &file, wantErr: domain.ErrValidation},
		{name: "into folder", docID: file, target: &inner},
		{name: "to root", docID: inner, target: nil},
		{name: "empty target means root", docID: file, target: strPtr("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := f.docs.MoveDocument(ctx, "owner", tt.docID, &docsysSvc.MoveDocumentRequest{TargetFolderID: tt.target})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			target := normalizeFolderID(tt.target)
			switch {
			case target == nil && doc.ParentFolderID != nil:
				t.Errorf("parent = %s, want root", *doc.ParentFolderID)
			case target != nil && (doc.ParentFolderID == nil || *doc.ParentFolderID != *target):
				t.Errorf("parent = %v, want %s", doc.ParentFolderID, *target)
			}
		})
	}
}

func TestMoveDocument_AuthorizesBeforeValidatingTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	folder := f.addFolder("owner", nil)

	_, err := f.docs.MoveDocument(ctx, "stranger", folder, &docsysSvc.MoveDocumentRequest{TargetFolderID: &folder})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("stranger: error = %v, want forbidden", err)
	}

	missing := "missing"
	_, err = f.docs.MoveDocument(ctx, "stranger", missing, &docsysSvc.MoveDocumentRequest{TargetFolderID: &missing})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing: error = %v, want not found", err)
	}
}

func TestDownloadDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	file := f.addFile("owner", "k/file")
	folder := f.addFolder("owner", nil)

	link, err := f.docs.DownloadDocument(ctx, "owner", file)
	if err != nil {
		t.Fatalf("DownloadDocument: %v", err)
	}
	if !strings.HasSuffix(link.URL, "k/file") {
		t.Errorf("URL = %s, want presigned url for k/file", link.URL)
	}
	if link.ExpiresAt.IsZero() {
		t.Error("ExpiresAt not set")
	}

	if _, err := f.docs.DownloadDocument(ctx, "owner", folder); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("folder download: error = %v, want validation", err)
	}
	if got := f.store.LogActions(file); len(got) != 1 || got[0] != actionDownload {
		t.Errorf("access log = %v, want [download]", got)
	}
}

func TestListAccessLogs_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	docID := f.addFile("owner", "k/file")
	f.grant(docID, "reader", access.LevelRead)
	f.grant(docID, "admin", access.LevelAdmin)

	if _, err := f.docs.GetDocument(ctx, "reader", docID); err != nil {
		t.Fatalf("GetDocument: %v", err)
	}

	if _, err := f.docs.ListAccessLogs(ctx, "reader", docID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("reader: error = %v, want forbidden", err)
	}

	logs, err := f.docs.ListAccessLogs(ctx, "admin", docID)
	if err != nil {
		t.Fatalf("ListAccessLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].Action != actionRead {
		t.Errorf("logs = %+v, want one read entry", logs)
	}
}

func TestSearchDocuments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine, err := f.docs.UploadDocument(ctx, &docsysSvc.UploadDocumentRequest{UserID: "owner", FileName: "budget.xlsx", Content: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	if _, err := f.docs.UploadDocument(ctx, &docsysSvc.UploadDocumentRequest{UserID: "other", FileName: "budget-secret.xlsx", Content: strings.NewReader("x")}); err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}

	results, err := f.docs.SearchDocuments(ctx, "owner", &docsysSvc.SearchDocumentsRequest{Query: "budget"})
	if err != nil {
		t.Fatalf("SearchDocuments: %v", err)
	}
	if results.TotalCount != 1 || results.Results[0].Document.ID != mine.ID {
		t.Errorf("results = %+v, want only the caller's document", results.Results)
	}

	if _, err := f.docs.SearchDocuments(ctx, "owner", &docsysSvc.SearchDocumentsRequest{Query: "  "}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("blank query: error = %v, want validation", err)
	}
	if _, err := f.docs.SearchDocuments(ctx, "", &docsysSvc.SearchDocumentsRequest{Query: "budget"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("anonymous: error = %v, want unauthorized", err)
	}
}

func TestHistory_SurvivesSoftDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.docs.UploadDocument(ctx, &docsysSvc.UploadDocumentRequest{
		UserID:   "owner",
		FileName: "report.pdf",
		Content:  strings.NewReader("pdf"),
		Size:     3,
	})
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	f.grant(doc.ID, "reader", access.LevelRead)

	if err := f.lifecycle.SoftDelete(ctx, "owner", doc.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if _, err := f.docs.GetDocument(ctx, "owner", doc.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetDocument after delete: error = %v, want not found", err)
	}

	versions, err := f.docs.ListVersions(ctx, "reader", doc.ID)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 1 || versions[0].Version != 1 {
		t.Errorf("versions = %+v, want the first version", versions)
	}

	logs, err := f.docs.ListAccessLogs(ctx, "owner", doc.ID)
	if err != nil {
		t.Fatalf("ListAccessLogs: %v", err)
	}
	var actions []string
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	if !slices.Contains(actions, actionDelete) || !slices.Contains(actions, actionUpload) {
		t.Errorf("actions = %v, want upload and delete", actions)
	}

	if _, err := f.docs.ListAccessLogs(ctx, "reader", doc.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("reader logs: error = %v, want forbidden", err)
	}
}
