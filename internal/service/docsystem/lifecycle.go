package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/models/access"
	docModels "docvault/internal/domain/models/docsystem"
	"docvault/internal/domain/repositories"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
	"docvault/internal/domain/services"
	docsysSvc "docvault/internal/domain/services/docsystem"
	"docvault/internal/service/audit"
)

// lifecycleService implements the LifecycleService interface
type lifecycleService struct {
	docRepo     docsysRepo.DocumentRepository
	versionRepo docsysRepo.VersionRepository
	search      docsysRepo.SearchIndex
	txManager   repositories.TransactionManager
	gateway     services.Gateway
	blobs       services.BlobStorage
	cleaner     services.BlobCleaner
	recorder    *audit.Recorder
	logger      *slog.Logger
}

// NewLifecycleService creates the version and soft-delete hooks
func NewLifecycleService(
	docRepo docsysRepo.DocumentRepository,
	versionRepo docsysRepo.VersionRepository,
	search docsysRepo.SearchIndex,
	txManager repositories.TransactionManager,
	gateway services.Gateway,
	blobs services.BlobStorage,
	cleaner services.BlobCleaner,
	recorder *audit.Recorder,
	logger *slog.Logger,
) docsysSvc.LifecycleService {
	return &lifecycleService{
		docRepo:     docRepo,
		versionRepo: versionRepo,
		search:      search,
		txManager:   txManager,
		gateway:     gateway,
		blobs:       blobs,
		cleaner:     cleaner,
		recorder:    recorder,
		logger:      logger,
	}
}

// AcceptNewVersion stores the blob, then appends the version row, bumps the
// document and reindexes it in one transaction. The bump only applies if
// nobody else bumped the version since it was read, so concurrent saves
// cannot both win. The replaced blob is deleted after commit by the cleaner.
func (s *lifecycleService) AcceptNewVersion(ctx context.Context, req *docsysSvc.NewVersionRequest) (*docModels.Document, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.DocumentID, validation.Required),
		validation.Field(&req.Content, validation.NotNil),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	doc, err := s.docRepo.GetByID(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc.IsFolder {
		return nil, fmt.Errorf("%w: folders have no versions", domain.ErrValidation)
	}

	createdBy := req.EditorID
	if createdBy == "" {
		createdBy = doc.OwnerID
	}

	counter := &countingReader{r: req.Content}
	key, err := s.blobs.Put(ctx, doc.Name, counter, req.Size, doc.MimeType)
	if err != nil {
		return nil, fmt.Errorf("store new version: %w", err)
	}

	var comment *string
	if req.Comment != "" {
		comment = &req.Comment
	}

	var updated *docModels.Document
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.versionRepo.Append(txCtx, &docModels.DocumentVersion{
			DocumentID: doc.ID,
			Version:    doc.Version + 1,
			FilePath:   key,
			FileSize:   counter.n,
			Comment:    comment,
			CreatedBy:  createdBy,
		}); err != nil {
			return err
		}

		var err error
		updated, err = s.docRepo.ApplyNewVersion(txCtx, doc.ID, doc.Version, key, counter.n)
		if err != nil {
			return err
		}
		if err := s.search.Index(txCtx, docModels.NewIndexedDocument(updated)); err != nil {
			return fmt.Errorf("search index: %w", err)
		}
		return nil
	})
	if err != nil {
		// The new blob is unreferenced now
		s.cleaner.ScheduleDelete(key)
		return nil, err
	}

	if doc.FilePath != "" && doc.FilePath != key {
		s.cleaner.ScheduleDelete(doc.FilePath)
	}

	s.recorder.Access(ctx, doc.ID, req.EditorID, actionEdit)
	s.recorder.Publish(ctx, models.EventDocumentVersionCreated, doc.ID, req.EditorID, map[string]string{
		"version": strconv.Itoa(updated.Version),
	})

	s.logger.Info("document version created",
		"id", doc.ID,
		"version", updated.Version,
		"size", updated.FileSize,
		"created_by", createdBy,
	)

	return updated, nil
}

// SoftDelete hides a document, drops it from search and deletes its blob.
// All three happen inside one transaction, the blob last, so a failure in any
// step leaves the document live. Children of a deleted folder are left in place.
func (s *lifecycleService) SoftDelete(ctx context.Context, userID, documentID string) error {
	if err := s.gateway.Authorize(ctx, userID, documentID, access.ActionDelete); err != nil {
		return err
	}

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.SoftDelete(txCtx, documentID); err != nil {
			return err
		}
		if err := s.search.Remove(txCtx, documentID); err != nil {
			return fmt.Errorf("search index: %w", err)
		}
		if !doc.IsFolder && doc.FilePath != "" {
			if err := s.blobs.Delete(txCtx, doc.FilePath); err != nil {
				return fmt.Errorf("delete blob: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.recorder.Access(ctx, documentID, userID, actionDelete)
	s.recorder.Publish(ctx, models.EventDocumentDeleted, documentID, userID, map[string]string{
		"is_folder": strconv.FormatBool(doc.IsFolder),
	})

	s.logger.Info("document deleted", "id", documentID, "user_id", userID, "is_folder", doc.IsFolder)
	return nil
}
