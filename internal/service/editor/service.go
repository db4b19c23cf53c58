// Package editor connects documents to an OnlyOffice document server: it
// builds signed editor configs and turns save callbacks into new versions.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"docvault/internal/capabilities"
	"docvault/internal/config"
	"docvault/internal/domain"
	"docvault/internal/domain/models/access"
	"docvault/internal/domain/models/editor"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
	"docvault/internal/domain/services"
	docsysSvc "docvault/internal/domain/services/docsystem"
	"docvault/internal/metrics"
)

// Config configures the editor bridge
type Config struct {
	// AppURL is the externally reachable base URL of this API, used for callbacks
	AppURL string
	// JWTSecret signs configs and verifies callbacks; empty disables both
	JWTSecret string
	// Lang is the editor UI language
	Lang string
	// DocumentServerURL is handed to the browser so it can load the editor script
	DocumentServerURL string
}

// editorService implements the EditorService interface
type editorService struct {
	docRepo   docsysRepo.DocumentRepository
	gateway   services.Gateway
	resolver  services.PermissionResolver
	blobs     services.BlobStorage
	lifecycle docsysSvc.LifecycleService
	formats   *capabilities.Registry
	client    *http.Client
	cfg       Config
	logger    *slog.Logger
}

// NewEditorService creates the editor bridge. client may be nil.
func NewEditorService(
	docRepo docsysRepo.DocumentRepository,
	gateway services.Gateway,
	resolver services.PermissionResolver,
	blobs services.BlobStorage,
	lifecycle docsysSvc.LifecycleService,
	formats *capabilities.Registry,
	client *http.Client,
	cfg Config,
	logger *slog.Logger,
) services.EditorService {
	if client == nil {
		client = &http.Client{Timeout: config.EditorDownloadTimeout}
	}
	if cfg.Lang == "" {
		cfg.Lang = "en"
	}
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	cfg.DocumentServerURL = strings.TrimRight(cfg.DocumentServerURL, "/")
	return &editorService{
		docRepo:   docRepo,
		gateway:   gateway,
		resolver:  resolver,
		blobs:     blobs,
		lifecycle: lifecycle,
		formats:   formats,
		client:    client,
		cfg:       cfg,
		logger:    logger,
	}
}

// BuildConfig requires Read. Write on the document (and an editable format)
// opens the editor in edit mode.
func (s *editorService) BuildConfig(ctx context.Context, userID, userName, documentID string) (*editor.Config, error) {
	if err := s.gateway.AuthorizeLevel(ctx, userID, documentID, access.LevelRead); err != nil {
		return nil, err
	}

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.IsFolder || doc.FilePath == "" {
		return nil, fmt.Errorf("%w: folders cannot be opened in the editor", domain.ErrValidation)
	}

	canWrite, err := s.canWrite(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	format, _ := s.formats.Lookup(doc.Name, doc.MimeType)
	canEdit := canWrite && format.Editable

	fileURL, err := s.blobs.PresignGetExternal(ctx, doc.FilePath, config.DownloadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("presign editor url: %w", err)
	}

	mode := editor.ModeView
	if canEdit {
		mode = editor.ModeEdit
	}

	cfg := &editor.Config{
		Document: editor.DocumentConfig{
			FileType: format.FileType,
			Key:      DocumentKey(doc.ID, doc.Version),
			Title:    doc.Name,
			URL:      fileURL,
			Permissions: editor.Permissions{
				Edit:     canEdit,
				Download: true,
				Review:   canEdit,
				Comment:  canEdit,
			},
		},
		DocumentType: string(format.DocumentType),
		EditorConfig: editor.EditorConfig{
			Mode:        mode,
			CallbackURL: fmt.Sprintf("%s/api/onlyoffice/callback/%s", s.cfg.AppURL, doc.ID),
			Lang:        s.cfg.Lang,
			User: editor.User{
				ID:   userID,
				Name: userName,
			},
		},
	}

	if s.cfg.JWTSecret != "" {
		token, err := s.sign(cfg)
		if err != nil {
			return nil, err
		}
		cfg.Token = token
	}
	cfg.DocumentServerURL = s.cfg.DocumentServerURL

	s.logger.Debug("editor config built",
		"document_id", doc.ID,
		"user_id", userID,
		"mode", mode,
		"file_type", format.FileType,
	)

	return cfg, nil
}

// HandleCallback verifies the callback token when a secret is configured,
// then saves, acknowledges a close, or just acknowledges.
func (s *editorService) HandleCallback(ctx context.Context, documentID string, cb *editor.Callback, bearer string) (*editor.CallbackResponse, error) {
	if s.cfg.JWTSecret != "" {
		verified, err := s.verifyCallback(cb, bearer)
		if err != nil {
			return nil, err
		}
		cb = verified
	}

	if cb.Key != "" && !strings.HasPrefix(cb.Key, documentID+"-") {
		return nil, fmt.Errorf("%w: callback key does not belong to document %s", domain.ErrValidation, documentID)
	}

	switch {
	case cb.ShouldSave():
		if err := s.save(ctx, documentID, cb); err != nil {
			return nil, err
		}
		return &editor.CallbackResponse{Error: 0, Message: "Document saved"}, nil
	case cb.IsClosed():
		s.logger.Debug("editor session closed", "document_id", documentID, "status", cb.Status)
		return &editor.CallbackResponse{Error: 0, Message: "Document closed"}, nil
	default:
		s.logger.Debug("editor status received", "document_id", documentID, "status", cb.Status)
		return &editor.CallbackResponse{Error: 0, Message: "Status received"}, nil
	}
}

// save downloads the finished file from the document server and hands it
// to the version hook
func (s *editorService) save(ctx context.Context, documentID string, cb *editor.Callback) error {
	if cb.URL == "" {
		metrics.EditorSaves.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: save callback without a url", domain.ErrValidation)
	}
	parsed, err := url.Parse(cb.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		metrics.EditorSaves.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: invalid download url", domain.ErrValidation)
	}

	dlCtx, cancel := context.WithTimeout(ctx, config.EditorDownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(dlCtx, http.MethodGet, cb.URL, nil)
	if err != nil {
		metrics.EditorSaves.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: invalid download url", domain.ErrValidation)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.EditorSaves.WithLabelValues("download_failed").Inc()
		return fmt.Errorf("download edited document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.EditorSaves.WithLabelValues("download_failed").Inc()
		return fmt.Errorf("download edited document: unexpected status %d", resp.StatusCode)
	}

	var editorID string
	if len(cb.Users) > 0 {
		if _, err := uuid.Parse(cb.Users[0]); err == nil {
			editorID = cb.Users[0]
		}
	}

	doc, err := s.lifecycle.AcceptNewVersion(ctx, &docsysSvc.NewVersionRequest{
		DocumentID: documentID,
		EditorID:   editorID,
		Content:    resp.Body,
		Size:       resp.ContentLength,
		Comment:    "Saved from editor",
	})
	if err != nil {
		outcome := "failed"
		if errors.Is(err, domain.ErrConflict) {
			outcome = "conflict"
		}
		metrics.EditorSaves.WithLabelValues(outcome).Inc()
		return err
	}

	metrics.EditorSaves.WithLabelValues("saved").Inc()
	s.logger.Info("editor save accepted",
		"document_id", documentID,
		"version", doc.Version,
		"editor_id", editorID,
		"status", cb.Status,
	)
	return nil
}

// canWrite asks the resolver directly; the gateway has already confirmed
// the document exists
func (s *editorService) canWrite(ctx context.Context, userID, documentID string) (bool, error) {
	ok, err := s.resolver.HasPermission(ctx, userID, documentID, access.LevelWrite)
	if err != nil {
		return false, fmt.Errorf("check write permission: %w", err)
	}
	return ok, nil
}

// DocumentKey identifies one version of a document to the editor cache
func DocumentKey(documentID string, version int) string {
	return fmt.Sprintf("%s-%d", documentID, version)
}
