package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"docvault/internal/domain/models"
	"docvault/internal/domain/models/docsystem"
	"docvault/internal/testutil/memstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorder_Access(t *testing.T) {
	store := memstore.New()
	rec := NewRecorder(store.AccessLogRepo(), nil, discardLogger())

	ctx := docsystem.WithRequestMeta(context.Background(), docsystem.RequestMeta{
		IPAddress: "10.0.0.1",
		UserAgent: "curl/8.0",
	})

	rec.Access(ctx, "doc-1", "user-1", "read")
	rec.Access(context.Background(), "doc-1", "", "share_access")

	if len(store.AccessLogs) != 2 {
		t.Fatalf("expected 2 log rows, got %d", len(store.AccessLogs))
	}

	first := store.AccessLogs[0]
	if first.UserID == nil || *first.UserID != "user-1" {
		t.Errorf("expected user id user-1, got %v", first.UserID)
	}
	if first.IPAddress == nil || *first.IPAddress != "10.0.0.1" {
		t.Errorf("expected ip 10.0.0.1, got %v", first.IPAddress)
	}
	if first.UserAgent == nil || *first.UserAgent != "curl/8.0" {
		t.Errorf("expected user agent curl/8.0, got %v", first.UserAgent)
	}

	anon := store.AccessLogs[1]
	if anon.UserID != nil {
		t.Errorf("expected nil user id for anonymous access, got %v", *anon.UserID)
	}
	if anon.IPAddress != nil {
		t.Errorf("expected nil ip without request meta")
	}
}

func TestRecorder_FailuresAreSwallowed(t *testing.T) {
	store := memstore.New()
	store.FailAccessLog = true
	events := &memstore.Events{Fail: true}
	rec := NewRecorder(store.AccessLogRepo(), events, discardLogger())

	// Neither call may panic or block
	rec.Access(context.Background(), "doc-1", "user-1", "read")
	rec.Publish(context.Background(), models.EventDocumentDeleted, "doc-1", "user-1", nil)

	if len(store.AccessLogs) != 0 {
		t.Errorf("expected no rows, got %d", len(store.AccessLogs))
	}
}

func TestRecorder_Publish(t *testing.T) {
	events := &memstore.Events{}
	rec := NewRecorder(memstore.New().AccessLogRepo(), events, discardLogger())

	rec.Publish(context.Background(), models.EventPermissionGranted, "doc-1", "user-1", map[string]string{"permission": "read"})

	types := events.Types()
	if len(types) != 1 || types[0] != models.EventPermissionGranted {
		t.Errorf("unexpected events: %v", types)
	}
}

func TestRecorder_NilPublisher(t *testing.T) {
	rec := NewRecorder(memstore.New().AccessLogRepo(), nil, discardLogger())
	rec.Publish(context.Background(), models.EventDocumentDeleted, "doc-1", "", nil)
}
