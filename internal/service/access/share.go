package access

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/crypto/bcrypt"

	"docvault/internal/config"
	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/models/access"
	accessRepo "docvault/internal/domain/repositories/access"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
	"docvault/internal/domain/services"
	accessSvc "docvault/internal/domain/services/access"
	"docvault/internal/metrics"
	"docvault/internal/service/audit"
)

// Access log actions recorded for share links
const (
	actionCreateShare = "create_share"
	actionRevokeShare = "revoke_share"
	actionShareAccess = "share_access"
)

// bcrypt ignores input past 72 bytes
const maxSharePasswordLength = 72

// tokenAttempts bounds retries on the (astronomically unlikely) token collision
const tokenAttempts = 3

// shareService implements the ShareService interface
type shareService struct {
	links      accessRepo.ShareLinkRepository
	documents  docsysRepo.DocumentRepository
	gateway    services.Gateway
	blobs      services.BlobStorage
	limiter    services.AttemptLimiter
	recorder   *audit.Recorder
	logger     *slog.Logger
	bcryptCost int
}

// NewShareService creates a new share link service
func NewShareService(
	links accessRepo.ShareLinkRepository,
	documents docsysRepo.DocumentRepository,
	gateway services.Gateway,
	blobs services.BlobStorage,
	limiter services.AttemptLimiter,
	recorder *audit.Recorder,
	logger *slog.Logger,
) accessSvc.ShareService {
	return &shareService{
		links:      links,
		documents:  documents,
		gateway:    gateway,
		blobs:      blobs,
		limiter:    limiter,
		recorder:   recorder,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// CreateShareLink mints a 256-bit bearer token for the document
func (s *shareService) CreateShareLink(ctx context.Context, req *accessSvc.CreateShareLinkRequest) (*access.ShareLink, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Permission, validation.Required, knownLevel),
		validation.Field(&req.Password, validation.NilOrNotEmpty, validation.Length(config.MinSharePasswordLength, maxSharePasswordLength)),
		validation.Field(&req.MaxAccessCount, atLeastOne),
		validation.Field(&req.ExpiresAt, inFuture(time.Now())),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.gateway.AuthorizeLevel(ctx, req.UserID, req.DocumentID, access.LevelShare); err != nil {
		return nil, err
	}

	link := &access.ShareLink{
		DocumentID:     req.DocumentID,
		CreatedBy:      req.UserID,
		Permission:     req.Permission,
		MaxAccessCount: req.MaxAccessCount,
		ExpiresAt:      req.ExpiresAt,
	}

	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash share password: %w", err)
		}
		hashed := string(hash)
		link.PasswordHash = &hashed
	}

	for attempt := 1; ; attempt++ {
		token, err := generateToken()
		if err != nil {
			return nil, err
		}
		link.Token = token

		err = s.links.Create(ctx, link)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) || attempt == tokenAttempts {
			return nil, err
		}
		s.logger.Warn("share token collision, retrying", "attempt", attempt)
	}

	s.recorder.Access(ctx, req.DocumentID, req.UserID, actionCreateShare)
	s.recorder.Publish(ctx, models.EventShareLinkCreated, req.DocumentID, req.UserID, map[string]string{
		"link_id":    link.ID,
		"permission": string(link.Permission),
	})

	s.logger.Info("share link created",
		"link_id", link.ID,
		"document_id", link.DocumentID,
		"permission", link.Permission,
		"password_protected", link.HasPassword(),
	)

	return link, nil
}

// ListShareLinks returns every link on the document
func (s *shareService) ListShareLinks(ctx context.Context, userID, documentID string) ([]access.ShareLink, error) {
	if err := s.gateway.AuthorizeLevel(ctx, userID, documentID, access.LevelShare); err != nil {
		return nil, err
	}
	return s.links.ListByDocument(ctx, documentID)
}

// RevokeShareLink deletes a link. The link's creator may always revoke it;
// anyone else needs Admin on the document.
func (s *shareService) RevokeShareLink(ctx context.Context, userID, documentID, shareID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	link, err := s.links.GetByID(ctx, shareID)
	if err != nil {
		return err
	}
	if link.DocumentID != documentID {
		return fmt.Errorf("share link %s: %w", shareID, domain.ErrNotFound)
	}

	if link.CreatedBy != userID {
		if err := s.gateway.AuthorizeLevel(ctx, userID, documentID, access.LevelAdmin); err != nil {
			return err
		}
	}

	if err := s.links.Delete(ctx, shareID); err != nil {
		return err
	}

	s.recorder.Access(ctx, documentID, userID, actionRevokeShare)
	s.recorder.Publish(ctx, models.EventShareLinkRevoked, documentID, userID, map[string]string{
		"link_id": shareID,
	})

	s.logger.Info("share link revoked", "link_id", shareID, "document_id", documentID, "revoked_by", userID)
	return nil
}

// RedeemShareLink consumes one use of a link. The password is checked
// before the use is counted, and the count itself is a single conditional
// update so concurrent redemptions can never overshoot the cap.
func (s *shareService) RedeemShareLink(ctx context.Context, req *accessSvc.RedeemShareLinkRequest) (*accessSvc.SharedDocument, error) {
	if req.Token == "" {
		metrics.ShareRedemptions.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("share link: %w", domain.ErrNotFound)
	}

	link, err := s.links.GetByToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.ShareRedemptions.WithLabelValues("not_found").Inc()
		}
		return nil, err
	}

	now := time.Now()
	if link.IsExpired(now) {
		metrics.ShareRedemptions.WithLabelValues("expired").Inc()
		return nil, domain.ErrShareLinkExpired
	}
	if link.IsExhausted() {
		metrics.ShareRedemptions.WithLabelValues("exhausted").Inc()
		return nil, domain.ErrShareLinkExhausted
	}

	doc, err := s.documents.GetByID(ctx, link.DocumentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.ShareRedemptions.WithLabelValues("not_found").Inc()
		}
		return nil, err
	}

	if link.HasPassword() {
		if err := s.checkPassword(ctx, link, req.Password); err != nil {
			return nil, err
		}
	}

	consumed, ok, err := s.links.ConsumeUse(ctx, req.Token)
	if err != nil {
		return nil, fmt.Errorf("consume share link: %w", err)
	}
	if !ok {
		return nil, s.classifyRejected(ctx, req.Token)
	}

	var downloadURL string
	if !doc.IsFolder && doc.FilePath != "" {
		downloadURL, err = s.blobs.PresignGet(ctx, doc.FilePath, config.DownloadURLTTL)
		if err != nil {
			s.logger.Warn("failed to presign shared download", "document_id", doc.ID, "error", err)
			downloadURL = ""
		}
	}

	metrics.ShareRedemptions.WithLabelValues("granted").Inc()
	s.recorder.Access(ctx, doc.ID, "", actionShareAccess)
	s.recorder.Publish(ctx, models.EventShareLinkRedeemed, doc.ID, "", map[string]string{
		"link_id":      consumed.ID,
		"access_count": fmt.Sprint(consumed.AccessCount),
	})

	s.logger.Info("share link redeemed",
		"link_id", consumed.ID,
		"document_id", doc.ID,
		"access_count", consumed.AccessCount,
	)

	return &accessSvc.SharedDocument{
		Redemption: access.Redemption{
			LinkID:      consumed.ID,
			DocumentID:  consumed.DocumentID,
			Permission:  consumed.Permission,
			AccessCount: consumed.AccessCount,
			RedeemedAt:  now.UTC(),
		},
		Document:    doc,
		DownloadURL: downloadURL,
	}, nil
}

// checkPassword verifies a link password under the attempt limiter.
// A mismatch never consumes a use.
func (s *shareService) checkPassword(ctx context.Context, link *access.ShareLink, password *string) error {
	locked, err := s.limiter.Locked(ctx, link.Token)
	if err != nil {
		return fmt.Errorf("check share lockout: %w", err)
	}
	if locked {
		metrics.ShareRedemptions.WithLabelValues("locked").Inc()
		return fmt.Errorf("%w: too many failed password attempts", domain.ErrTooManyRequests)
	}

	if password != nil && bcrypt.CompareHashAndPassword([]byte(*link.PasswordHash), []byte(*password)) == nil {
		if err := s.limiter.Reset(ctx, link.Token); err != nil {
			s.logger.Warn("failed to reset share password attempts", "link_id", link.ID, "error", err)
		}
		return nil
	}

	metrics.ShareRedemptions.WithLabelValues("bad_password").Inc()
	nowLocked, err := s.limiter.RecordFailure(ctx, link.Token)
	if err != nil {
		s.logger.Warn("failed to record share password failure", "link_id", link.ID, "error", err)
	}
	if nowLocked {
		s.logger.Warn("share link locked after repeated password failures", "link_id", link.ID)
	}

	return &domain.ForbiddenError{Message: "invalid share link password"}
}

// classifyRejected re-reads a link whose conditional update matched nothing
func (s *shareService) classifyRejected(ctx context.Context, token string) error {
	link, err := s.links.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.ShareRedemptions.WithLabelValues("not_found").Inc()
		}
		return err
	}
	if link.IsExpired(time.Now()) {
		metrics.ShareRedemptions.WithLabelValues("expired").Inc()
		return domain.ErrShareLinkExpired
	}
	metrics.ShareRedemptions.WithLabelValues("exhausted").Inc()
	return domain.ErrShareLinkExhausted
}

// generateToken returns 32 random bytes, base64url encoded without padding
func generateToken() (string, error) {
	b := make([]byte, config.ShareTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
