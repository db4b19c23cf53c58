package docsystem_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/domain"
	models "docvault/internal/domain/models/docsystem"
	pgdocs "docvault/internal/repository/postgres/docsystem"
	"docvault/internal/repository/postgres/pgtest"
)

func TestDocumentRepository_ApplyNewVersionGuard(t *testing.T) {
	cfg := pgtest.Start(t)
	ctx := context.Background()
	repo := pgdocs.NewDocumentRepository(cfg)

	doc := &models.Document{Name: "a.txt", FilePath: "k1/a.txt", MimeType: "text/plain", OwnerID: uuid.NewString()}
	require.NoError(t, repo.Create(ctx, doc))
	require.Equal(t, 1, doc.Version)

	updated, err := repo.ApplyNewVersion(ctx, doc.ID, 1, "k2/a.txt", 42)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "k2/a.txt", updated.FilePath)
	assert.Equal(t, int64(42), updated.FileSize)

	_, err = repo.ApplyNewVersion(ctx, doc.ID, 1, "k3/a.txt", 7)
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, repo.SoftDelete(ctx, doc.ID))
	_, err = repo.ApplyNewVersion(ctx, doc.ID, 2, "k3/a.txt", 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentRepository_SoftDeleteAndList(t *testing.T) {
	cfg := pgtest.Start(t)
	ctx := context.Background()
	repo := pgdocs.NewDocumentRepository(cfg)
	owner := uuid.NewString()

	folder := &models.Document{Name: "Reports", MimeType: models.FolderMimeType, IsFolder: true, OwnerID: owner}
	require.NoError(t, repo.Create(ctx, folder))

	child := &models.Document{Name: "q1.pdf", FilePath: "k/q1.pdf", MimeType: "application/pdf", OwnerID: owner, ParentFolderID: &folder.ID}
	require.NoError(t, repo.Create(ctx, child))

	children, err := repo.List(ctx, models.ListOptions{OwnerID: owner, ParentFolderID: &folder.ID})
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)

	require.NoError(t, repo.SoftDelete(ctx, folder.ID))
	_, err = repo.GetByID(ctx, folder.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	deleted, err := repo.GetByIDIncludingDeleted(ctx, folder.ID)
	require.NoError(t, err)
	assert.NotNil(t, deleted.DeletedAt)

	// Children are orphaned, not cascaded
	stillThere, err := repo.GetByID(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, folder.ID, *stillThere.ParentFolderID)

	err = repo.SoftDelete(ctx, folder.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchIndex_FiltersByReadability(t *testing.T) {
	cfg := pgtest.Start(t)
	ctx := context.Background()
	docs := pgdocs.NewDocumentRepository(cfg)
	index := pgdocs.NewSearchIndex(cfg)

	owner := uuid.NewString()
	viewer := uuid.NewString()

	doc := &models.Document{Name: "Quarterly budget", FilePath: "k/b.xlsx", MimeType: "application/vnd.ms-excel", OwnerID: owner}
	require.NoError(t, docs.Create(ctx, doc))
	require.NoError(t, index.Index(ctx, models.NewIndexedDocument(doc)))

	search := func(viewerID string) *models.SearchResults {
		res, err := index.Search(ctx, &models.SearchOptions{Query: "budget", ViewerID: viewerID})
		require.NoError(t, err)
		return res
	}

	assert.Len(t, search(owner).Results, 1)
	assert.Empty(t, search(viewer).Results)

	pgtest.Exec(t, cfg, "INSERT INTO "+cfg.Tables.DocumentPermissions+
		" (document_id, user_id, permission, granted_by) VALUES ($1, $2, 'read', $3)", doc.ID, viewer, owner)
	res := search(viewer)
	require.Len(t, res.Results, 1)
	assert.Equal(t, doc.ID, res.Results[0].Document.ID)
	assert.Equal(t, 1, res.TotalCount)

	require.NoError(t, index.Remove(ctx, doc.ID))
	assert.Empty(t, search(owner).Results)
}

func TestSearchIndex_WeightsAndFieldSubset(t *testing.T) {
	cfg := pgtest.Start(t)
	ctx := context.Background()
	docs := pgdocs.NewDocumentRepository(cfg)
	index := pgdocs.NewSearchIndex(cfg)
	owner := uuid.NewString()

	described := "the annual budget plan"
	byDescription := &models.Document{Name: "plan.docx", Description: &described, FilePath: "k/p.docx", MimeType: "application/msword", OwnerID: owner}
	byName := &models.Document{Name: "budget.xlsx", FilePath: "k/b.xlsx", MimeType: "application/vnd.ms-excel", OwnerID: owner}
	byTag := &models.Document{Name: "notes.txt", FilePath: "k/n.txt", MimeType: "text/plain", OwnerID: owner, Tags: []string{"budgets"}}
	for _, d := range []*models.Document{byDescription, byName, byTag} {
		require.NoError(t, docs.Create(ctx, d))
		require.NoError(t, index.Index(ctx, models.NewIndexedDocument(d)))
	}

	all, err := index.Search(ctx, &models.SearchOptions{Query: "budget", ViewerID: owner})
	require.NoError(t, err)
	require.Len(t, all.Results, 3)
	assert.Equal(t, byName.ID, all.Results[0].Document.ID, "name matches rank first")

	tagsOnly, err := index.Search(ctx, &models.SearchOptions{
		Query:    "budget",
		ViewerID: owner,
		Fields:   []models.SearchField{models.SearchFieldTags},
	})
	require.NoError(t, err)
	require.Len(t, tagsOnly.Results, 1)
	assert.Equal(t, byTag.ID, tagsOnly.Results[0].Document.ID)

	// Reindexing replaces the stored vector
	byTag.Tags = []string{"archive"}
	require.NoError(t, index.Index(ctx, models.NewIndexedDocument(byTag)))
	tagsOnly, err = index.Search(ctx, &models.SearchOptions{
		Query:    "budget",
		ViewerID: owner,
		Fields:   []models.SearchField{models.SearchFieldTags},
	})
	require.NoError(t, err)
	assert.Empty(t, tagsOnly.Results)
}
