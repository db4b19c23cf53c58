package access

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"docvault/internal/domain/models/access"
	"docvault/internal/domain/models/docsystem"
	accessSvc "docvault/internal/domain/services/access"
	"docvault/internal/service/audit"
	authsvc "docvault/internal/service/auth"
	"docvault/internal/testutil/memstore"
	"docvault/internal/throttle"
)

const maxPasswordAttempts = 3

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store  *memstore.Store
	blobs  *memstore.BlobStore
	events *memstore.Events
	redis  *miniredis.Miniredis
	perms  accessSvc.PermissionService
	shares accessSvc.ShareService

	owner string
	docID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := &fixture{
		store:  memstore.New(),
		blobs:  memstore.NewBlobStore(),
		events: &memstore.Events{},
		redis:  mr,
		owner:  uuid.NewString(),
	}
	f.docID = f.store.AddDocument(docsystem.Document{
		Name:     "plan.docx",
		OwnerID:  f.owner,
		FilePath: "k/plan.docx",
		MimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	})

	logger := discardLogger()
	resolver := authsvc.NewPermissionResolver(f.store.PermissionRepo(), logger)
	gateway := authsvc.NewGateway(f.store.DocumentRepo(), resolver, logger)
	recorder := audit.NewRecorder(f.store.AccessLogRepo(), f.events, logger)
	limiter := throttle.NewRedisLimiter(client, "test:share", maxPasswordAttempts, 15*time.Minute)

	f.perms = NewPermissionService(f.store.PermissionRepo(), f.store.DocumentRepo(), resolver, gateway, recorder, logger)

	shares := NewShareService(f.store.ShareLinkRepo(), f.store.DocumentRepo(), gateway, f.blobs, limiter, recorder, logger)
	shares.(*shareService).bcryptCost = bcrypt.MinCost
	f.shares = shares

	return f
}

// userWith returns a fresh user holding the given live direct levels on the fixture document
func (f *fixture) userWith(levels ...access.Level) string {
	id := uuid.NewString()
	for _, l := range levels {
		f.store.AddGrant(access.Grant{DocumentID: f.docID, UserID: id, Permission: l, GrantedBy: f.owner})
	}
	return id
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
