package docsystem

import (
	"io"
	"log/slog"
	"testing"

	"docvault/internal/domain/models/access"
	"docvault/internal/domain/models/docsystem"
	docsysSvc "docvault/internal/domain/services/docsystem"
	"docvault/internal/service/audit"
	authsvc "docvault/internal/service/auth"
	"docvault/internal/testutil/memstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store     *memstore.Store
	blobs     *memstore.BlobStore
	cleaner   *memstore.Cleaner
	events    *memstore.Events
	tx        *memstore.TxManager
	docs      docsysSvc.DocumentService
	lifecycle docsysSvc.LifecycleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   memstore.New(),
		blobs:   memstore.NewBlobStore(),
		cleaner: &memstore.Cleaner{},
		events:  &memstore.Events{},
		tx:      &memstore.TxManager{},
	}
	logger := discardLogger()
	resolver := authsvc.NewPermissionResolver(f.store.PermissionRepo(), logger)
	gateway := authsvc.NewGateway(f.store.DocumentRepo(), resolver, logger)
	recorder := audit.NewRecorder(f.store.AccessLogRepo(), f.events, logger)

	f.docs = NewDocumentService(
		f.store.DocumentRepo(),
		f.store.VersionRepo(),
		f.store.AccessLogRepo(),
		f.store.SearchIndex(),
		f.tx,
		gateway,
		f.blobs,
		recorder,
		logger,
	)
	f.lifecycle = NewLifecycleService(
		f.store.DocumentRepo(),
		f.store.VersionRepo(),
		f.store.SearchIndex(),
		f.tx,
		gateway,
		f.blobs,
		f.cleaner,
		recorder,
		logger,
	)
	return f
}

func (f *fixture) addFolder(owner string, parent *string) string {
	return f.store.AddDocument(docsystem.Document{
		Name:           "folder",
		OwnerID:        owner,
		IsFolder:       true,
		MimeType:       docsystem.FolderMimeType,
		ParentFolderID: parent,
	})
}

func (f *fixture) addFile(owner, key string) string {
	return f.store.AddDocument(docsystem.Document{
		Name:     "report.docx",
		OwnerID:  owner,
		FilePath: key,
		FileSize: 3,
		MimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	})
}

func (f *fixture) grant(docID, user string, level access.Level) {
	f.store.AddGrant(access.Grant{DocumentID: docID, UserID: user, Permission: level, GrantedBy: "test"})
}

func strPtr(s string) *string { return &s }

func plainDoc(owner string, parent *string) docsystem.Document {
	return docsystem.Document{
		Name:           "child.txt",
		OwnerID:        owner,
		FilePath:       "k/" + owner,
		MimeType:       "text/plain",
		ParentFolderID: parent,
	}
}
