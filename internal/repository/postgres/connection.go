package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"docvault/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Documents           string
	DocumentVersions    string
	DocumentPermissions string
	Groups              string
	GroupMembers        string
	GroupPermissions    string
	ShareLinks          string
	AccessLogs          string
	SearchDocuments     string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Documents:           fmt.Sprintf("%sdocuments", prefix),
		DocumentVersions:    fmt.Sprintf("%sdocument_versions", prefix),
		DocumentPermissions: fmt.Sprintf("%sdocument_permissions", prefix),
		Groups:              fmt.Sprintf("%sgroups", prefix),
		GroupMembers:        fmt.Sprintf("%sgroup_members", prefix),
		GroupPermissions:    fmt.Sprintf("%sgroup_permissions", prefix),
		ShareLinks:          fmt.Sprintf("%sshare_links", prefix),
		AccessLogs:          fmt.Sprintf("%saccess_logs", prefix),
		SearchDocuments:     fmt.Sprintf("%ssearch_documents", prefix),
	}
}

// All returns every table in dependency order (referenced tables first).
func (t *TableNames) All() []string {
	return []string{
		t.Documents,
		t.DocumentVersions,
		t.Groups,
		t.GroupMembers,
		t.DocumentPermissions,
		t.GroupPermissions,
		t.ShareLinks,
		t.AccessLogs,
		t.SearchDocuments,
	}
}

// CreateConnectionPool creates a pgx pool.
//
// Port 6543 is treated as a PgBouncer transaction pooler, which cannot hold
// prepared statements across transactions. For it the exec mode is switched
// to cache_describe unless the connection string already sets
// default_query_exec_mode. Table names are interpolated with fmt.Sprintf
// before the statement reaches the server, so each prefix gets its own
// statement cache entry.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction stored in ctx, or the pool when there is none.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
