package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docvault/internal/config"
	"docvault/internal/domain"
	"docvault/internal/domain/models/access"
	models "docvault/internal/domain/models/docsystem"
	"docvault/internal/domain/repositories"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
	"docvault/internal/domain/services"
	docsysSvc "docvault/internal/domain/services/docsystem"
	"docvault/internal/service/audit"
)

// Access log actions recorded by the document service
const (
	actionRead     = "read"
	actionDownload = "download"
	actionUpload   = "upload"
	actionUpdate   = "update"
	actionMove     = "move"
	actionDelete   = "delete"
	actionEdit     = "edit"
)

// maxFolderDepth bounds the ancestor walk when checking for move cycles
const maxFolderDepth = 256

// documentService implements the DocumentService interface
type documentService struct {
	docRepo     docsysRepo.DocumentRepository
	versionRepo docsysRepo.VersionRepository
	logRepo     docsysRepo.AccessLogRepository
	search      docsysRepo.SearchIndex
	txManager   repositories.TransactionManager
	gateway     services.Gateway
	blobs       services.BlobStorage
	recorder    *audit.Recorder
	logger      *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo docsysRepo.DocumentRepository,
	versionRepo docsysRepo.VersionRepository,
	logRepo docsysRepo.AccessLogRepository,
	search docsysRepo.SearchIndex,
	txManager repositories.TransactionManager,
	gateway services.Gateway,
	blobs services.BlobStorage,
	recorder *audit.Recorder,
	logger *slog.Logger,
) docsysSvc.DocumentService {
	return &documentService{
		docRepo:     docRepo,
		versionRepo: versionRepo,
		logRepo:     logRepo,
		search:      search,
		txManager:   txManager,
		gateway:     gateway,
		blobs:       blobs,
		recorder:    recorder,
		logger:      logger,
	}
}

// CreateFolder creates a folder at the root or under a parent the caller can write to
func (s *documentService) CreateFolder(ctx context.Context, req *docsysSvc.CreateFolderRequest) (*models.Document, error) {
	if err := requireUser(req.UserID); err != nil {
		return nil, err
	}
	req.ParentFolderID = normalizeFolderID(req.ParentFolderID)
	req.Name = strings.TrimSpace(req.Name)

	if err := validateCreateFolderRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.checkParent(ctx, req.UserID, req.ParentFolderID); err != nil {
		return nil, err
	}

	folder := &models.Document{
		Name:           req.Name,
		Description:    req.Description,
		MimeType:       models.FolderMimeType,
		OwnerID:        req.UserID,
		ParentFolderID: req.ParentFolderID,
		IsFolder:       true,
		Tags:           []string{},
	}
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.Create(txCtx, folder); err != nil {
			return err
		}
		return s.index(txCtx, folder)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"owner_id", folder.OwnerID,
	)

	return folder, nil
}

// UploadDocument stores the blob first, then the document row, its first
// version and its search entry in one transaction. The blob is removed again
// if any of those cannot be written.
func (s *documentService) UploadDocument(ctx context.Context, req *docsysSvc.UploadDocumentRequest) (*models.Document, error) {
	if err := requireUser(req.UserID); err != nil {
		return nil, err
	}
	req.ParentFolderID = normalizeFolderID(req.ParentFolderID)
	req.FileName = strings.TrimSpace(req.FileName)
	req.Tags = normalizeTags(req.Tags)

	if err := validateUploadRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.checkParent(ctx, req.UserID, req.ParentFolderID); err != nil {
		return nil, err
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	counter := &countingReader{r: req.Content}
	key, err := s.blobs.Put(ctx, req.FileName, counter, req.Size, contentType)
	if err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	doc := &models.Document{
		Name:           req.FileName,
		Description:    req.Description,
		FilePath:       key,
		FileSize:       counter.n,
		MimeType:       contentType,
		Version:        1,
		OwnerID:        req.UserID,
		ParentFolderID: req.ParentFolderID,
		Tags:           req.Tags,
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.Create(txCtx, doc); err != nil {
			return err
		}
		if err := s.versionRepo.Append(txCtx, &models.DocumentVersion{
			DocumentID: doc.ID,
			Version:    1,
			FilePath:   key,
			FileSize:   counter.n,
			CreatedBy:  req.UserID,
		}); err != nil {
			return err
		}
		return s.index(txCtx, doc)
	})
	if err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Error("failed to remove blob after aborted upload", "key", key, "error", delErr)
		}
		return nil, err
	}

	s.recorder.Access(ctx, doc.ID, req.UserID, actionUpload)

	s.logger.Info("document uploaded",
		"id", doc.ID,
		"name", doc.Name,
		"size", doc.FileSize,
		"owner_id", doc.OwnerID,
	)

	return doc, nil
}

// GetDocument retrieves a document the caller can read
func (s *documentService) GetDocument(ctx context.Context, userID, documentID string) (*models.Document, error) {
	if err := s.gateway.Authorize(ctx, userID, documentID, access.ActionRead); err != nil {
		return nil, err
	}

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	s.recorder.Access(ctx, documentID, userID, actionRead)
	return doc, nil
}

// ListDocuments lists the caller's own documents in a folder (or the root).
// A folder that is missing or deleted is NotFound.
func (s *documentService) ListDocuments(ctx context.Context, req *docsysSvc.ListDocumentsRequest) ([]models.Document, error) {
	if err := requireUser(req.UserID); err != nil {
		return nil, err
	}
	req.FolderID = normalizeFolderID(req.FolderID)

	if req.FolderID != nil {
		if err := s.gateway.AuthorizeLevel(ctx, req.UserID, *req.FolderID, access.LevelRead); err != nil {
			return nil, err
		}
		if _, err := s.getFolder(ctx, *req.FolderID); err != nil {
			return nil, err
		}
	}

	limit, offset := normalizePage(req.Limit, req.Offset)
	return s.docRepo.List(ctx, models.ListOptions{
		OwnerID:        req.UserID,
		ParentFolderID: req.FolderID,
		Limit:          limit,
		Offset:         offset,
	})
}

// UpdateDocument changes metadata and refreshes the search index
func (s *documentService) UpdateDocument(ctx context.Context, userID, documentID string, req *docsysSvc.UpdateDocumentRequest) (*models.Document, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if req.Tags != nil {
		req.Tags = normalizeTags(req.Tags)
	}

	if err := validateUpdateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.gateway.Authorize(ctx, userID, documentID, access.ActionUpdate); err != nil {
		return nil, err
	}

	var doc *models.Document
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		doc, err = s.docRepo.UpdateMetadata(txCtx, documentID, &models.MetadataUpdate{
			Name:        req.Name,
			Description: req.Description,
			Tags:        req.Tags,
			TagsSet:     req.Tags != nil,
		})
		if err != nil {
			return err
		}
		return s.index(txCtx, doc)
	})
	if err != nil {
		return nil, err
	}
	s.recorder.Access(ctx, documentID, userID, actionUpdate)

	return doc, nil
}

// MoveDocument re-parents a document. The destination must be a live folder
// the caller can write to and must not sit below the document being moved.
func (s *documentService) MoveDocument(ctx context.Context, userID, documentID string, req *docsysSvc.MoveDocumentRequest) (*models.Document, error) {
	target := normalizeFolderID(req.TargetFolderID)

	if err := s.gateway.AuthorizeMove(ctx, userID, documentID, target); err != nil {
		return nil, err
	}

	if target != nil {
		if *target == documentID {
			return nil, fmt.Errorf("%w: cannot move a folder into itself", domain.ErrValidation)
		}
		if _, err := s.getFolder(ctx, *target); err != nil {
			return nil, err
		}
		if err := s.checkNoCycle(ctx, documentID, *target); err != nil {
			return nil, err
		}
	}

	doc, err := s.docRepo.Move(ctx, documentID, target)
	if err != nil {
		return nil, err
	}

	s.recorder.Access(ctx, documentID, userID, actionMove)
	return doc, nil
}

// DownloadDocument returns a presigned URL for the current blob
func (s *documentService) DownloadDocument(ctx context.Context, userID, documentID string) (*docsysSvc.DownloadLink, error) {
	if err := s.gateway.Authorize(ctx, userID, documentID, access.ActionDownload); err != nil {
		return nil, err
	}

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.IsFolder || doc.FilePath == "" {
		return nil, fmt.Errorf("%w: folders cannot be downloaded", domain.ErrValidation)
	}

	url, err := s.blobs.PresignGet(ctx, doc.FilePath, config.DownloadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("presign download: %w", err)
	}

	s.recorder.Access(ctx, documentID, userID, actionDownload)

	return &docsysSvc.DownloadLink{
		URL:       url,
		ExpiresAt: time.Now().Add(config.DownloadURLTTL).UTC(),
	}, nil
}

// ListVersions returns version history newest first. Soft-deleted documents
// keep their history.
func (s *documentService) ListVersions(ctx context.Context, userID, documentID string) ([]models.DocumentVersion, error) {
	if err := s.gateway.AuthorizeLevelIncludingDeleted(ctx, userID, documentID, access.LevelRead); err != nil {
		return nil, err
	}
	return s.versionRepo.ListByDocument(ctx, documentID)
}

// ListAccessLogs returns the newest audit entries; Admin only. Soft-deleted
// documents stay auditable.
func (s *documentService) ListAccessLogs(ctx context.Context, userID, documentID string) ([]models.AccessLog, error) {
	if err := s.gateway.AuthorizeLevelIncludingDeleted(ctx, userID, documentID, access.LevelAdmin); err != nil {
		return nil, err
	}
	return s.logRepo.ListByDocument(ctx, documentID, config.AccessLogPageSize)
}

// SearchDocuments runs a full-text search restricted to what the caller can read
func (s *documentService) SearchDocuments(ctx context.Context, userID string, req *docsysSvc.SearchDocumentsRequest) (*models.SearchResults, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	req.Query = strings.TrimSpace(req.Query)

	if err := validateSearchRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	opts := &models.SearchOptions{
		Query:    req.Query,
		ViewerID: userID,
		OwnerID:  req.OwnerID,
		MimeType: req.MimeType,
		IsFolder: req.IsFolder,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}

	results, err := s.search.Search(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return results, nil
}

// checkParent requires Write on a parent folder, when one is given, and
// that the parent is in fact a folder
func (s *documentService) checkParent(ctx context.Context, userID string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	if err := s.gateway.AuthorizeLevel(ctx, userID, *parentID, access.LevelWrite); err != nil {
		return err
	}
	_, err := s.getFolder(ctx, *parentID)
	return err
}

// getFolder loads a live document and requires it to be a folder
func (s *documentService) getFolder(ctx context.Context, id string) (*models.Document, error) {
	folder, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("invalid folder: %w", err)
	}
	if !folder.IsFolder {
		return nil, fmt.Errorf("%w: %s is not a folder", domain.ErrValidation, id)
	}
	return folder, nil
}

// checkNoCycle walks up from target and fails if documentID is an ancestor
func (s *documentService) checkNoCycle(ctx context.Context, documentID, target string) error {
	current := target
	for depth := 0; depth < maxFolderDepth; depth++ {
		folder, err := s.docRepo.GetByID(ctx, current)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Orphaned below a deleted folder; the chain ends here
				return nil
			}
			return err
		}
		if folder.ParentFolderID == nil {
			return nil
		}
		if *folder.ParentFolderID == documentID {
			return fmt.Errorf("%w: cannot move a folder into its own descendant", domain.ErrValidation)
		}
		current = *folder.ParentFolderID
	}
	return fmt.Errorf("%w: folder nesting exceeds %d levels", domain.ErrValidation, maxFolderDepth)
}

// index refreshes the search projection. Called inside the write's
// transaction so a failure aborts the whole operation.
func (s *documentService) index(ctx context.Context, doc *models.Document) error {
	if err := s.search.Index(ctx, models.NewIndexedDocument(doc)); err != nil {
		return fmt.Errorf("search index: %w", err)
	}
	return nil
}
