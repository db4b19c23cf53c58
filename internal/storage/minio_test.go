package storage

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.docx", "report.docx"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\notes.txt`, "notes.txt"},
		{"dir/sub/file.pdf", "file.pdf"},
		{"  spaced name.xlsx  ", "spaced name.xlsx"},
		{"bad\x00name\n.txt", "badname.txt"},
		{"", "file"},
		{"..", "file"},
		{"/", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("../plan.pptx")

	dir, file, ok := strings.Cut(key, "/")
	require.True(t, ok)
	_, err := uuid.Parse(dir)
	assert.NoError(t, err, "directory must be a uuid")
	assert.Equal(t, "plan.pptx", file)
	assert.NotEqual(t, key, ObjectKey("../plan.pptx"), "keys are unique per upload")
}

func TestPresignUsesPublicEndpoint(t *testing.T) {
	cfg := Config{
		Endpoint:       "minio:9000",
		PublicEndpoint: "files.example.com",
		AccessKey:      "ak",
		SecretKey:      "sk",
		Region:         "us-east-1",
	}
	internal, err := newClient(cfg.Endpoint, cfg)
	require.NoError(t, err)
	public, err := newClient(cfg.PublicEndpoint, cfg)
	require.NoError(t, err)

	s := &MinioStorage{client: internal, public: public, bucket: "documents", logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	ctx := context.Background()

	internalURL, err := s.PresignGet(ctx, "abc/file.txt", time.Hour)
	require.NoError(t, err)
	externalURL, err := s.PresignGetExternal(ctx, "abc/file.txt", time.Hour)
	require.NoError(t, err)

	iu, _ := url.Parse(internalURL)
	eu, _ := url.Parse(externalURL)
	assert.Equal(t, "minio:9000", iu.Host)
	assert.Equal(t, "files.example.com", eu.Host)
	assert.Equal(t, "3600", eu.Query().Get("X-Amz-Expires"))

	_, err = s.PresignGet(ctx, "../escape", time.Hour)
	assert.Error(t, err)
}

func TestIsNoSuchKey(t *testing.T) {
	assert.True(t, isNoSuchKey(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.False(t, isNoSuchKey(minio.ErrorResponse{Code: "AccessDenied"}))
}
