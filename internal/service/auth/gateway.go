package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"docvault/internal/domain"
	"docvault/internal/domain/models/access"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
	"docvault/internal/domain/services"
	"docvault/internal/metrics"
)

// gateway is the single entry point every document operation passes through.
// It distinguishes a missing document (404) from a denied one (403).
type gateway struct {
	documents docsysRepo.DocumentRepository
	resolver  services.PermissionResolver
	logger    *slog.Logger
}

// NewGateway creates the authorization gateway
func NewGateway(documents docsysRepo.DocumentRepository, resolver services.PermissionResolver, logger *slog.Logger) services.Gateway {
	return &gateway{documents: documents, resolver: resolver, logger: logger}
}

// Authorize maps an action keyword to its level and checks it
func (g *gateway) Authorize(ctx context.Context, userID, documentID string, action access.Action) error {
	level, err := access.RequiredLevel(action)
	if err != nil {
		return err
	}
	return g.AuthorizeLevel(ctx, userID, documentID, level)
}

// AuthorizeLevel checks existence of a live document first, then the resolver
func (g *gateway) AuthorizeLevel(ctx context.Context, userID, documentID string, level access.Level) error {
	return g.authorize(ctx, userID, documentID, level, g.liveExists)
}

// AuthorizeLevelIncludingDeleted also admits soft-deleted documents
func (g *gateway) AuthorizeLevelIncludingDeleted(ctx context.Context, userID, documentID string, level access.Level) error {
	return g.authorize(ctx, userID, documentID, level, g.anyExists)
}

func (g *gateway) liveExists(ctx context.Context, documentID string) error {
	_, err := g.documents.GetOwnerID(ctx, documentID)
	return err
}

func (g *gateway) anyExists(ctx context.Context, documentID string) error {
	_, err := g.documents.GetByIDIncludingDeleted(ctx, documentID)
	return err
}

func (g *gateway) authorize(
	ctx context.Context,
	userID, documentID string,
	level access.Level,
	exists func(ctx context.Context, documentID string) error,
) error {
	if userID == "" {
		return &domain.UnauthorizedError{Message: "authentication required"}
	}

	if err := exists(ctx, documentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.AuthorizationDecisions.WithLabelValues(string(level), "not_found").Inc()
			return err
		}
		metrics.AuthorizationDecisions.WithLabelValues(string(level), "error").Inc()
		return fmt.Errorf("authorize: %w", err)
	}

	allowed, err := g.resolver.HasPermission(ctx, userID, documentID, level)
	if err != nil {
		metrics.AuthorizationDecisions.WithLabelValues(string(level), "error").Inc()
		g.logger.Error("permission check failed", "user_id", userID, "document_id", documentID, "level", level, "error", err)
		return fmt.Errorf("authorize: %w", err)
	}

	if !allowed {
		metrics.AuthorizationDecisions.WithLabelValues(string(level), "denied").Inc()
		g.logger.Info("access denied", "user_id", userID, "document_id", documentID, "level", level)
		return &domain.ForbiddenError{Message: fmt.Sprintf("%s permission required", level)}
	}

	metrics.AuthorizationDecisions.WithLabelValues(string(level), "allowed").Inc()
	return nil
}

// AuthorizeMove requires Write on the document and, unless moving to the
// root, Write on the destination folder
func (g *gateway) AuthorizeMove(ctx context.Context, userID, documentID string, targetFolderID *string) error {
	if err := g.AuthorizeLevel(ctx, userID, documentID, access.LevelWrite); err != nil {
		return err
	}
	if targetFolderID == nil {
		return nil
	}
	return g.AuthorizeLevel(ctx, userID, *targetFolderID, access.LevelWrite)
}
