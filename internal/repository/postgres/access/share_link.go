package access

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"docvault/internal/domain"
	models "docvault/internal/domain/models/access"
	accessRepo "docvault/internal/domain/repositories/access"
	"docvault/internal/repository/postgres"
)

const shareLinkColumns = `id, document_id, token, created_by, permission, password_hash,
	max_access_count, access_count, expires_at, created_at`

// PostgresShareLinkRepository implements ShareLinkRepository
type PostgresShareLinkRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewShareLinkRepository creates a new share link repository
func NewShareLinkRepository(config *postgres.RepositoryConfig) accessRepo.ShareLinkRepository {
	return &PostgresShareLinkRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanShareLink(row scanner) (*models.ShareLink, error) {
	var link models.ShareLink
	var raw string
	err := row.Scan(
		&link.ID,
		&link.DocumentID,
		&link.Token,
		&link.CreatedBy,
		&raw,
		&link.PasswordHash,
		&link.MaxAccessCount,
		&link.AccessCount,
		&link.ExpiresAt,
		&link.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if link.Permission, err = models.ParseStoredLevel(raw); err != nil {
		return nil, err
	}
	return &link, nil
}

// Create inserts a share link
func (r *PostgresShareLinkRepository) Create(ctx context.Context, link *models.ShareLink) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, token, created_by, permission, password_hash, max_access_count, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, access_count, created_at
	`, r.tables.ShareLinks)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		link.DocumentID,
		link.Token,
		link.CreatedBy,
		string(link.Permission),
		link.PasswordHash,
		link.MaxAccessCount,
		link.ExpiresAt,
	).Scan(&link.ID, &link.AccessCount, &link.CreatedAt)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("share token collision: %w", domain.ErrConflict)
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("document %s: %w", link.DocumentID, domain.ErrNotFound)
		}
		return fmt.Errorf("create share link: %w", err)
	}

	return nil
}

// GetByToken looks a link up by token
func (r *PostgresShareLinkRepository) GetByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE token = $1`, shareLinkColumns, r.tables.ShareLinks)
	return r.getOne(ctx, query, token)
}

// GetByID looks a link up by id
func (r *PostgresShareLinkRepository) GetByID(ctx context.Context, id string) (*models.ShareLink, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, shareLinkColumns, r.tables.ShareLinks)
	return r.getOne(ctx, query, id)
}

func (r *PostgresShareLinkRepository) getOne(ctx context.Context, query string, arg string) (*models.ShareLink, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	link, err := scanShareLink(executor.QueryRow(ctx, query, arg))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("share link: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get share link: %w", err)
	}
	return link, nil
}

// ListByDocument returns all links on a document, newest first
func (r *PostgresShareLinkRepository) ListByDocument(ctx context.Context, documentID string) ([]models.ShareLink, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE document_id = $1
		ORDER BY created_at DESC
	`, shareLinkColumns, r.tables.ShareLinks)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list share links: %w", err)
	}
	defer rows.Close()

	links := []models.ShareLink{}
	for rows.Next() {
		link, err := scanShareLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan share link: %w", err)
		}
		links = append(links, *link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate share links: %w", err)
	}

	return links, nil
}

// ConsumeUse increments access_count in one conditional statement, so two
// concurrent redemptions can never both take the last use.
func (r *PostgresShareLinkRepository) ConsumeUse(ctx context.Context, token string) (*models.ShareLink, bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET access_count = access_count + 1
		WHERE token = $1
		  AND (expires_at IS NULL OR expires_at > NOW())
		  AND (max_access_count IS NULL OR access_count < max_access_count)
		RETURNING %s
	`, r.tables.ShareLinks, shareLinkColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	link, err := scanShareLink(executor.QueryRow(ctx, query, token))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("consume share link: %w", err)
	}

	return link, true, nil
}

// Delete removes a link by id
func (r *PostgresShareLinkRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.ShareLinks)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete share link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("share link %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
