package access

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/models/access"
	accessRepo "docvault/internal/domain/repositories/access"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
	"docvault/internal/domain/services"
	accessSvc "docvault/internal/domain/services/access"
	"docvault/internal/service/audit"
)

// Access log actions recorded for permission changes
const (
	actionGrant       = "grant_permission"
	actionRevoke      = "revoke_permission"
	actionGrantGroup  = "grant_group_permission"
	actionRevokeGroup = "revoke_group_permission"
)

// permissionService implements the PermissionService interface
type permissionService struct {
	perms     accessRepo.PermissionRepository
	documents docsysRepo.DocumentRepository
	resolver  services.PermissionResolver
	gateway   services.Gateway
	recorder  *audit.Recorder
	logger    *slog.Logger
}

// NewPermissionService creates a new permission service
func NewPermissionService(
	perms accessRepo.PermissionRepository,
	documents docsysRepo.DocumentRepository,
	resolver services.PermissionResolver,
	gateway services.Gateway,
	recorder *audit.Recorder,
	logger *slog.Logger,
) accessSvc.PermissionService {
	return &permissionService{
		perms:     perms,
		documents: documents,
		resolver:  resolver,
		gateway:   gateway,
		recorder:  recorder,
		logger:    logger,
	}
}

// GrantPermission inserts a direct grant. Granting a level the user already
// holds adds another row; revoking removes them all.
func (s *permissionService) GrantPermission(ctx context.Context, req *accessSvc.GrantPermissionRequest) (*access.Grant, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required, isUUID),
		validation.Field(&req.Permission, validation.Required, knownLevel),
		validation.Field(&req.ExpiresAt, inFuture(time.Now())),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.gateway.AuthorizeLevel(ctx, req.GrantedBy, req.DocumentID, access.LevelAdmin); err != nil {
		return nil, err
	}

	grant := &access.Grant{
		DocumentID: req.DocumentID,
		UserID:     req.UserID,
		Permission: req.Permission,
		GrantedBy:  req.GrantedBy,
		ExpiresAt:  req.ExpiresAt,
	}
	if err := s.perms.Grant(ctx, grant); err != nil {
		return nil, err
	}

	s.recorder.Access(ctx, req.DocumentID, req.GrantedBy, actionGrant)
	s.recorder.Publish(ctx, models.EventPermissionGranted, req.DocumentID, req.GrantedBy, map[string]string{
		"user_id":    req.UserID,
		"permission": string(req.Permission),
	})

	s.logger.Info("permission granted",
		"document_id", req.DocumentID,
		"user_id", req.UserID,
		"permission", req.Permission,
		"granted_by", req.GrantedBy,
	)

	return grant, nil
}

// RevokePermission deletes every row for one (document, user, level) triple
func (s *permissionService) RevokePermission(ctx context.Context, req *accessSvc.RevokePermissionRequest) error {
	level, err := access.ParseLevel(req.Permission)
	if err != nil {
		return err
	}

	if err := s.gateway.AuthorizeLevel(ctx, req.RequestedBy, req.DocumentID, access.LevelAdmin); err != nil {
		return err
	}

	if err := s.perms.Revoke(ctx, req.DocumentID, req.TargetUserID, level); err != nil {
		return err
	}

	s.recorder.Access(ctx, req.DocumentID, req.RequestedBy, actionRevoke)
	s.recorder.Publish(ctx, models.EventPermissionRevoked, req.DocumentID, req.RequestedBy, map[string]string{
		"user_id":    req.TargetUserID,
		"permission": string(level),
	})

	s.logger.Info("permission revoked",
		"document_id", req.DocumentID,
		"user_id", req.TargetUserID,
		"permission", level,
		"revoked_by", req.RequestedBy,
	)
	return nil
}

// ListPermissions returns every direct grant row on the document
func (s *permissionService) ListPermissions(ctx context.Context, userID, documentID string) ([]access.Grant, error) {
	if err := s.gateway.AuthorizeLevel(ctx, userID, documentID, access.LevelAdmin); err != nil {
		return nil, err
	}
	return s.perms.ListForDocument(ctx, documentID)
}

// GrantGroupPermission inserts a group grant
func (s *permissionService) GrantGroupPermission(ctx context.Context, req *accessSvc.GrantGroupPermissionRequest) (*access.GroupGrant, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.GroupID, validation.Required, isUUID),
		validation.Field(&req.Permission, validation.Required, knownLevel),
		validation.Field(&req.ExpiresAt, inFuture(time.Now())),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.gateway.AuthorizeLevel(ctx, req.GrantedBy, req.DocumentID, access.LevelAdmin); err != nil {
		return nil, err
	}

	grant := &access.GroupGrant{
		DocumentID: req.DocumentID,
		GroupID:    req.GroupID,
		Permission: req.Permission,
		GrantedBy:  req.GrantedBy,
		ExpiresAt:  req.ExpiresAt,
	}
	if err := s.perms.GrantGroup(ctx, grant); err != nil {
		return nil, err
	}

	s.recorder.Access(ctx, req.DocumentID, req.GrantedBy, actionGrantGroup)
	s.recorder.Publish(ctx, models.EventPermissionGranted, req.DocumentID, req.GrantedBy, map[string]string{
		"group_id":   req.GroupID,
		"permission": string(req.Permission),
	})

	s.logger.Info("group permission granted",
		"document_id", req.DocumentID,
		"group_id", req.GroupID,
		"permission", req.Permission,
	)

	return grant, nil
}

// RevokeGroupPermission deletes every row for one (document, group, level) triple
func (s *permissionService) RevokeGroupPermission(ctx context.Context, req *accessSvc.RevokeGroupPermissionRequest) error {
	level, err := access.ParseLevel(req.Permission)
	if err != nil {
		return err
	}

	if err := s.gateway.AuthorizeLevel(ctx, req.RequestedBy, req.DocumentID, access.LevelAdmin); err != nil {
		return err
	}

	if err := s.perms.RevokeGroup(ctx, req.DocumentID, req.GroupID, level); err != nil {
		return err
	}

	s.recorder.Access(ctx, req.DocumentID, req.RequestedBy, actionRevokeGroup)
	s.recorder.Publish(ctx, models.EventPermissionRevoked, req.DocumentID, req.RequestedBy, map[string]string{
		"group_id":   req.GroupID,
		"permission": string(level),
	})
	return nil
}

// ListGroupPermissions returns every group grant row on the document
func (s *permissionService) ListGroupPermissions(ctx context.Context, userID, documentID string) ([]access.GroupGrant, error) {
	if err := s.gateway.AuthorizeLevel(ctx, userID, documentID, access.LevelAdmin); err != nil {
		return nil, err
	}
	return s.perms.ListGroupGrantsForDocument(ctx, documentID)
}

// MyPermissions needs only authentication. Levels are the live direct
// grants; ownership is reported separately and not expanded.
func (s *permissionService) MyPermissions(ctx context.Context, userID, documentID string) (*access.EffectivePermissions, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	ownerID, err := s.documents.GetOwnerID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	levels, err := s.resolver.ListPermissions(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	return &access.EffectivePermissions{
		DocumentID: documentID,
		IsOwner:    ownerID == userID,
		Levels:     levels,
	}, nil
}
