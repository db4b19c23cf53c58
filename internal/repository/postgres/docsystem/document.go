package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"docvault/internal/domain"
	models "docvault/internal/domain/models/docsystem"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
	"docvault/internal/repository/postgres"
)

const documentColumns = `id, name, description, file_path, file_size, mime_type, version, status,
	owner_id, parent_folder_id, is_folder, tags, metadata, created_at, updated_at, deleted_at`

// scanner is satisfied by pgx.Row and pgx.Rows
type scanner interface {
	Scan(dest ...any) error
}

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) docsysRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func scanDocument(row scanner, doc *models.Document) error {
	return row.Scan(
		&doc.ID,
		&doc.Name,
		&doc.Description,
		&doc.FilePath,
		&doc.FileSize,
		&doc.MimeType,
		&doc.Version,
		&doc.Status,
		&doc.OwnerID,
		&doc.ParentFolderID,
		&doc.IsFolder,
		&doc.Tags,
		&doc.Metadata,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&doc.DeletedAt,
	)
}

// Create creates a new document or folder
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]interface{}{}
	}
	if doc.Status == "" {
		doc.Status = models.DocumentStatusActive
	}
	if doc.Version == 0 {
		doc.Version = 1
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (name, description, file_path, file_size, mime_type, version, status,
		                owner_id, parent_folder_id, is_folder, tags, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.Name,
		doc.Description,
		doc.FilePath,
		doc.FileSize,
		doc.MimeType,
		doc.Version,
		doc.Status,
		doc.OwnerID,
		doc.ParentFolderID,
		doc.IsFolder,
		doc.Tags,
		doc.Metadata,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("parent folder: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a live document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	return r.get(ctx, id, true)
}

// GetByIDIncludingDeleted retrieves a document even if it was soft-deleted
func (r *PostgresDocumentRepository) GetByIDIncludingDeleted(ctx context.Context, id string) (*models.Document, error) {
	return r.get(ctx, id, false)
}

func (r *PostgresDocumentRepository) get(ctx context.Context, id string, liveOnly bool) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, documentColumns, r.tables.Documents)
	if liveOnly {
		query += ` AND deleted_at IS NULL`
	}

	var doc models.Document
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := scanDocument(executor.QueryRow(ctx, query, id), &doc); err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return &doc, nil
}

// GetOwnerID returns the owner of a live document
func (r *PostgresDocumentRepository) GetOwnerID(ctx context.Context, id string) (string, error) {
	query := fmt.Sprintf(`
		SELECT owner_id FROM %s
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Documents)

	var ownerID string
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, id).Scan(&ownerID); err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return "", fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return "", fmt.Errorf("get document owner: %w", err)
	}

	return ownerID, nil
}

// List lists live documents of one owner under a folder, newest first
func (r *PostgresDocumentRepository) List(ctx context.Context, opts models.ListOptions) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner_id = $1 AND deleted_at IS NULL
	`, documentColumns, r.tables.Documents)
	args := []interface{}{opts.OwnerID}

	if opts.ParentFolderID != nil {
		query += ` AND parent_folder_id = $2`
		args = append(args, *opts.ParentFolderID)
	} else {
		query += ` AND parent_folder_id IS NULL`
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, opts.Offset)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		var doc models.Document
		if err := scanDocument(rows, &doc); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

// UpdateMetadata changes the fields set in update
func (r *PostgresDocumentRepository) UpdateMetadata(ctx context.Context, id string, update *models.MetadataUpdate) (*models.Document, error) {
	if update.IsEmpty() {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrValidation)
	}

	var sets []string
	args := []interface{}{id}

	if update.Name != nil {
		args = append(args, *update.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if update.Description != nil {
		args = append(args, *update.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if update.TagsSet {
		tags := update.Tags
		if tags == nil {
			tags = []string{}
		}
		args = append(args, tags)
		sets = append(sets, fmt.Sprintf("tags = $%d", len(args)))
	}
	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE %s SET %s
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING %s
	`, r.tables.Documents, strings.Join(sets, ", "), documentColumns)

	return r.updateReturning(ctx, id, query, args...)
}

// Move sets the parent folder; nil moves the document to the root
func (r *PostgresDocumentRepository) Move(ctx context.Context, id string, parentFolderID *string) (*models.Document, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET parent_folder_id = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING %s
	`, r.tables.Documents, documentColumns)

	return r.updateReturning(ctx, id, query, id, parentFolderID)
}

func (r *PostgresDocumentRepository) updateReturning(ctx context.Context, id, query string, args ...interface{}) (*models.Document, error) {
	var doc models.Document
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := scanDocument(executor.QueryRow(ctx, query, args...), &doc); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		if postgres.IsPgForeignKeyError(err) {
			return nil, fmt.Errorf("target folder: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("update document: %w", err)
	}
	return &doc, nil
}

// SoftDelete sets deleted_at on a live document
func (r *PostgresDocumentRepository) SoftDelete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ApplyNewVersion swaps in a new blob guarded by the expected version
func (r *PostgresDocumentRepository) ApplyNewVersion(ctx context.Context, id string, expectedVersion int, filePath string, fileSize int64) (*models.Document, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET file_path = $3, file_size = $4, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2 AND deleted_at IS NULL
		RETURNING %s
	`, r.tables.Documents, documentColumns)

	var doc models.Document
	executor := postgres.GetExecutor(ctx, r.pool)
	err := scanDocument(executor.QueryRow(ctx, query, id, expectedVersion, filePath, fileSize), &doc)
	if err == nil {
		return &doc, nil
	}
	if !postgres.IsPgNoRowsError(err) {
		return nil, fmt.Errorf("apply new version: %w", err)
	}

	// Zero rows: either the document is gone or the version moved on
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, &domain.ConflictError{
		Message:      fmt.Sprintf("document %s changed since version %d", id, expectedVersion),
		ResourceType: "document",
		ResourceID:   id,
	}
}
