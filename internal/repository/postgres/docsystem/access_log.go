package docsystem

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	models "docvault/internal/domain/models/docsystem"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
	"docvault/internal/repository/postgres"
)

// PostgresAccessLogRepository implements AccessLogRepository
type PostgresAccessLogRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewAccessLogRepository creates a new access log repository
func NewAccessLogRepository(config *postgres.RepositoryConfig) docsysRepo.AccessLogRepository {
	return &PostgresAccessLogRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Append inserts an audit entry
func (r *PostgresAccessLogRepository) Append(ctx context.Context, entry *models.AccessLog) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, user_id, action, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, r.tables.AccessLogs)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		entry.DocumentID,
		entry.UserID,
		entry.Action,
		entry.IPAddress,
		entry.UserAgent,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append access log: %w", err)
	}

	return nil
}

// ListByDocument returns the newest entries first
func (r *PostgresAccessLogRepository) ListByDocument(ctx context.Context, documentID string, limit int) ([]models.AccessLog, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, user_id, action, ip_address, user_agent, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, r.tables.AccessLogs)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list access logs: %w", err)
	}
	defer rows.Close()

	logs := []models.AccessLog{}
	for rows.Next() {
		var l models.AccessLog
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.UserID, &l.Action, &l.IPAddress, &l.UserAgent, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan access log: %w", err)
		}
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access logs: %w", err)
	}

	return logs, nil
}
