package docsystem

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/models/access"
	docModels "docvault/internal/domain/models/docsystem"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
	docsysSvc "docvault/internal/domain/services/docsystem"
	"docvault/internal/service/audit"
	authsvc "docvault/internal/service/auth"
	"docvault/internal/testutil/memstore"
)

func TestAcceptNewVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	docID := f.addFile("owner", "old/key")

	doc, err := f.lifecycle.AcceptNewVersion(ctx, &docsysSvc.NewVersionRequest{
		DocumentID: docID,
		EditorID:   "editor",
		Content:    strings.NewReader("new body"),
		Size:       -1,
		Comment:    "saved from editor",
	})
	if err != nil {
		t.Fatalf("AcceptNewVersion: %v", err)
	}

	if doc.Version != 2 {
		t.Errorf("Version = %d, want 2", doc.Version)
	}
	if doc.FilePath == "old/key" || !f.blobs.Has(doc.FilePath) {
		t.Errorf("FilePath = %s, want the newly stored blob", doc.FilePath)
	}
	if doc.FileSize != int64(len("new body")) {
		t.Errorf("FileSize = %d, want %d", doc.FileSize, len("new body"))
	}

	if len(f.store.Versions) != 1 {
		t.Fatalf("expected one version row, got %d", len(f.store.Versions))
	}
	v := f.store.Versions[0]
	if v.Version != 2 || v.CreatedBy != "editor" || v.Comment == nil || *v.Comment != "saved from editor" {
		t.Errorf("unexpected version row: %+v", v)
	}

	if keys := f.cleaner.Keys(); len(keys) != 1 || keys[0] != "old/key" {
		t.Errorf("scheduled deletes = %v, want [old/key]", keys)
	}
	if f.tx.Commits != 1 {
		t.Errorf("commits = %d, want 1", f.tx.Commits)
	}
	if types := f.events.Types(); len(types) != 1 || types[0] != models.EventDocumentVersionCreated {
		t.Errorf("events = %v", types)
	}
	if got := f.store.LogActions(docID); len(got) != 1 || got[0] != actionEdit {
		t.Errorf("access log = %v, want [edit]", got)
	}
}

func TestAcceptNewVersion_DefaultsCreatorToOwner(t *testing.T) {
	f := newFixture(t)
	docID := f.addFile("owner", "old/key")

	if _, err := f.lifecycle.AcceptNewVersion(context.Background(), &docsysSvc.NewVersionRequest{
		DocumentID: docID,
		Content:    strings.NewReader("x"),
		Size:       1,
	}); err != nil {
		t.Fatalf("AcceptNewVersion: %v", err)
	}
	if got := f.store.Versions[0].CreatedBy; got != "owner" {
		t.Errorf("CreatedBy = %s, want owner", got)
	}
}

func TestAcceptNewVersion_Rejections(t *testing.T) {
	f := newFixture(t)
	folder := f.addFolder("owner", nil)
	deleted := f.addFile("owner", "k/deleted")
	if err := f.store.DocumentRepo().SoftDelete(context.Background(), deleted); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		req     docsysSvc.NewVersionRequest
		wantErr error
	}{
		{name: "no document id", req: docsysSvc.NewVersionRequest{Content: strings.NewReader("x")}, wantErr: domain.ErrValidation},
		{name: "no content", req: docsysSvc.NewVersionRequest{DocumentID: folder}, wantErr: domain.ErrValidation},
		{name: "folder", req: docsysSvc.NewVersionRequest{DocumentID: folder, Content: strings.NewReader("x")}, wantErr: domain.ErrValidation},
		{name: "missing", req: docsysSvc.NewVersionRequest{DocumentID: "missing", Content: strings.NewReader("x")}, wantErr: domain.ErrNotFound},
		{name: "deleted", req: docsysSvc.NewVersionRequest{DocumentID: deleted, Content: strings.NewReader("x")}, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			if _, err := f.lifecycle.AcceptNewVersion(context.Background(), &req); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if n := f.blobs.Count(); n != 0 {
		t.Errorf("rejected saves stored %d blobs", n)
	}
}

// racingRepo lets a competing writer bump the version right after the
// service has read the document
type racingRepo struct {
	docsysRepo.DocumentRepository
	once sync.Once
}

func (r *racingRepo) GetByID(ctx context.Context, id string) (*docModels.Document, error) {
	doc, err := r.DocumentRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.once.Do(func() {
		_, err = r.DocumentRepository.ApplyNewVersion(ctx, id, doc.Version, "competitor/key", 1)
	})
	return doc, err
}

func TestAcceptNewVersion_LostRaceIsConflict(t *testing.T) {
	f := newFixture(t)
	docID := f.addFile("owner", "old/key")
	logger := discardLogger()
	resolver := authsvc.NewPermissionResolver(f.store.PermissionRepo(), logger)
	gateway := authsvc.NewGateway(f.store.DocumentRepo(), resolver, logger)

	svc := NewLifecycleService(
		&racingRepo{DocumentRepository: f.store.DocumentRepo()},
		f.store.VersionRepo(),
		f.store.SearchIndex(),
		f.tx,
		gateway,
		f.blobs,
		f.cleaner,
		audit.NewRecorder(f.store.AccessLogRepo(), f.events, logger),
		logger,
	)

	_, err := svc.AcceptNewVersion(context.Background(), &docsysSvc.NewVersionRequest{
		DocumentID: docID,
		Content:    strings.NewReader("late"),
		Size:       4,
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("error = %v, want conflict", err)
	}

	doc, _ := f.store.Document(docID)
	if doc.Version != 2 || doc.FilePath != "competitor/key" {
		t.Errorf("document = v%d %s, want the competitor's version", doc.Version, doc.FilePath)
	}
	if f.tx.Rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", f.tx.Rollbacks)
	}

	// Only the rejected blob is cleaned up
	keys := f.cleaner.Keys()
	if len(keys) != 1 || keys[0] == "old/key" {
		t.Errorf("scheduled deletes = %v, want only the rejected blob", keys)
	}
	if len(f.events.Types()) != 0 {
		t.Error("a rejected save must not publish events")
	}
}

func TestAcceptNewVersion_ConcurrentSavesNeverShareAVersion(t *testing.T) {
	f := newFixture(t)
	docID := f.addFile("owner", "old/key")

	const writers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.lifecycle.AcceptNewVersion(context.Background(), &docsysSvc.NewVersionRequest{
				DocumentID: docID,
				Content:    strings.NewReader("body"),
				Size:       4,
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			if !errors.Is(err, domain.ErrConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes == 0 {
		t.Fatal("at least one save must succeed")
	}
	doc, _ := f.store.Document(docID)
	if doc.Version != 1+successes {
		t.Errorf("Version = %d, want %d (one bump per successful save)", doc.Version, 1+successes)
	}
}

func TestSoftDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	file := f.addFile("owner", "k/file")
	folder := f.addFolder("owner", nil)
	f.grant(file, "writer", access.LevelWrite)
	f.grant(file, "deleter", access.LevelDelete)
	f.store.Indexed[file] = &docModels.IndexedDocument{ID: file}

	if err := f.lifecycle.SoftDelete(ctx, "writer", file); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("writer: error = %v, want forbidden", err)
	}
	if doc, _ := f.store.Document(file); doc.DeletedAt != nil {
		t.Fatal("forbidden delete must not touch the document")
	}

	if err := f.lifecycle.SoftDelete(ctx, "deleter", file); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if doc, _ := f.store.Document(file); doc.DeletedAt == nil {
		t.Error("DeletedAt not set")
	}
	if _, ok := f.store.Indexed[file]; ok {
		t.Error("document still indexed")
	}
	if len(f.blobs.Deleted) != 1 || f.blobs.Deleted[0] != "k/file" {
		t.Errorf("deleted blobs = %v, want [k/file]", f.blobs.Deleted)
	}
	if keys := f.cleaner.Keys(); len(keys) != 0 {
		t.Errorf("soft delete went through the cleaner: %v", keys)
	}
	if err := f.lifecycle.SoftDelete(ctx, "deleter", file); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: error = %v, want not found", err)
	}

	if err := f.lifecycle.SoftDelete(ctx, "owner", folder); err != nil {
		t.Fatalf("SoftDelete folder: %v", err)
	}
	if len(f.blobs.Deleted) != 1 {
		t.Errorf("folder delete removed a blob: %v", f.blobs.Deleted)
	}

	types := f.events.Types()
	if len(types) != 2 || types[0] != models.EventDocumentDeleted {
		t.Errorf("events = %v, want two document.deleted", types)
	}
}

func TestSoftDelete_SideEffectFailuresFailTheDelete(t *testing.T) {
	tests := []struct {
		name   string
		inject func(f *fixture)
	}{
		{name: "search index down", inject: func(f *fixture) { f.store.FailIndex = true }},
		{name: "blob storage down", inject: func(f *fixture) { f.blobs.FailDelete = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			file := f.addFile("owner", "k/file")
			tt.inject(f)

			err := f.lifecycle.SoftDelete(context.Background(), "owner", file)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, memstore.ErrInjected) {
				t.Errorf("error = %v, want the injected failure", err)
			}
			if f.tx.Rollbacks != 1 {
				t.Errorf("rollbacks = %d, want 1", f.tx.Rollbacks)
			}
			if types := f.events.Types(); len(types) != 0 {
				t.Errorf("events published for a failed delete: %v", types)
			}
		})
	}
}

func TestAcceptNewVersion_IndexFailureAbortsSave(t *testing.T) {
	f := newFixture(t)
	file := f.addFile("owner", "k/v1")
	f.store.FailIndex = true

	_, err := f.lifecycle.AcceptNewVersion(context.Background(), &docsysSvc.NewVersionRequest{
		DocumentID: file,
		Content:    strings.NewReader("v2"),
		Size:       2,
	})
	if !errors.Is(err, memstore.ErrInjected) {
		t.Fatalf("error = %v, want the injected failure", err)
	}
	if f.tx.Rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", f.tx.Rollbacks)
	}
	// Only the new, now unreferenced blob is scheduled for cleanup
	if keys := f.cleaner.Keys(); len(keys) != 1 || keys[0] == "k/v1" {
		t.Errorf("scheduled deletes = %v, want the new blob only", keys)
	}
}
