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

// liveClause is the liveness predicate evaluated against the database clock
const liveClause = `(expires_at IS NULL OR expires_at > NOW())`

// PostgresPermissionRepository implements PermissionRepository
type PostgresPermissionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewPermissionRepository creates a new permission repository
func NewPermissionRepository(config *postgres.RepositoryConfig) accessRepo.PermissionRepository {
	return &PostgresPermissionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// IsOwner reports whether userID owns the document
func (r *PostgresPermissionRepository) IsOwner(ctx context.Context, userID, documentID string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1 AND owner_id = $2)
	`, r.tables.Documents)
	return r.exists(ctx, "check owner", query, documentID, userID)
}

// HasLiveDirectGrant checks for a live direct grant of exactly level
func (r *PostgresPermissionRepository) HasLiveDirectGrant(ctx context.Context, userID, documentID string, level models.Level) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s
			WHERE document_id = $1 AND user_id = $2 AND permission = $3 AND %s
		)
	`, r.tables.DocumentPermissions, liveClause)
	return r.exists(ctx, "check direct grant", query, documentID, userID, string(level))
}

// HasLiveGroupGrant checks group grants through membership in one query
func (r *PostgresPermissionRepository) HasLiveGroupGrant(ctx context.Context, userID, documentID string, level models.Level) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s gp
			JOIN %s gm ON gm.group_id = gp.group_id
			WHERE gp.document_id = $1 AND gm.user_id = $2 AND gp.permission = $3
			  AND (gp.expires_at IS NULL OR gp.expires_at > NOW())
		)
	`, r.tables.GroupPermissions, r.tables.GroupMembers)
	return r.exists(ctx, "check group grant", query, documentID, userID, string(level))
}

func (r *PostgresPermissionRepository) exists(ctx context.Context, op, query string, args ...interface{}) (bool, error) {
	var ok bool
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, args...).Scan(&ok); err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// ListLiveDirectLevels returns the distinct live direct levels in a stable order
func (r *PostgresPermissionRepository) ListLiveDirectLevels(ctx context.Context, userID, documentID string) ([]models.Level, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT permission FROM %s
		WHERE document_id = $1 AND user_id = $2 AND %s
		ORDER BY permission
	`, r.tables.DocumentPermissions, liveClause)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID, userID)
	if err != nil {
		return nil, fmt.Errorf("list direct levels: %w", err)
	}
	defer rows.Close()

	levels := []models.Level{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan level: %w", err)
		}
		level, err := models.ParseStoredLevel(raw)
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate levels: %w", err)
	}

	return levels, nil
}

// Grant inserts a new direct grant row
func (r *PostgresPermissionRepository) Grant(ctx context.Context, grant *models.Grant) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, user_id, permission, granted_by, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, granted_at
	`, r.tables.DocumentPermissions)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		grant.DocumentID,
		grant.UserID,
		string(grant.Permission),
		grant.GrantedBy,
		grant.ExpiresAt,
	).Scan(&grant.ID, &grant.GrantedAt)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("document %s: %w", grant.DocumentID, domain.ErrNotFound)
		}
		return fmt.Errorf("grant permission: %w", err)
	}

	return nil
}

// Revoke deletes every row for the exact triple
func (r *PostgresPermissionRepository) Revoke(ctx context.Context, documentID, userID string, level models.Level) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE document_id = $1 AND user_id = $2 AND permission = $3
	`, r.tables.DocumentPermissions)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, documentID, userID, string(level))
	if err != nil {
		return fmt.Errorf("revoke permission: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("permission %s for user %s: %w", level, userID, domain.ErrNotFound)
	}

	return nil
}

// ListForDocument returns every direct grant row, expired ones included
func (r *PostgresPermissionRepository) ListForDocument(ctx context.Context, documentID string) ([]models.Grant, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, user_id, permission, granted_by, granted_at, expires_at
		FROM %s
		WHERE document_id = $1
		ORDER BY granted_at DESC
	`, r.tables.DocumentPermissions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()

	grants := []models.Grant{}
	for rows.Next() {
		var g models.Grant
		var raw string
		if err := rows.Scan(&g.ID, &g.DocumentID, &g.UserID, &raw, &g.GrantedBy, &g.GrantedAt, &g.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		if g.Permission, err = models.ParseStoredLevel(raw); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permissions: %w", err)
	}

	return grants, nil
}

// GrantGroup inserts a new group grant row
func (r *PostgresPermissionRepository) GrantGroup(ctx context.Context, grant *models.GroupGrant) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, group_id, permission, granted_by, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, granted_at
	`, r.tables.GroupPermissions)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		grant.DocumentID,
		grant.GroupID,
		string(grant.Permission),
		grant.GrantedBy,
		grant.ExpiresAt,
	).Scan(&grant.ID, &grant.GrantedAt)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("document or group: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("grant group permission: %w", err)
	}

	return nil
}

// RevokeGroup deletes every row for the exact group triple
func (r *PostgresPermissionRepository) RevokeGroup(ctx context.Context, documentID, groupID string, level models.Level) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE document_id = $1 AND group_id = $2 AND permission = $3
	`, r.tables.GroupPermissions)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, documentID, groupID, string(level))
	if err != nil {
		return fmt.Errorf("revoke group permission: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("permission %s for group %s: %w", level, groupID, domain.ErrNotFound)
	}

	return nil
}

// ListGroupGrantsForDocument returns every group grant row
func (r *PostgresPermissionRepository) ListGroupGrantsForDocument(ctx context.Context, documentID string) ([]models.GroupGrant, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, group_id, permission, granted_by, granted_at, expires_at
		FROM %s
		WHERE document_id = $1
		ORDER BY granted_at DESC
	`, r.tables.GroupPermissions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list group permissions: %w", err)
	}
	defer rows.Close()

	grants := []models.GroupGrant{}
	for rows.Next() {
		var g models.GroupGrant
		var raw string
		if err := rows.Scan(&g.ID, &g.DocumentID, &g.GroupID, &raw, &g.GrantedBy, &g.GrantedAt, &g.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan group permission: %w", err)
		}
		if g.Permission, err = models.ParseStoredLevel(raw); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group permissions: %w", err)
	}

	return grants, nil
}
