package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ApplySchema creates every table and index if missing. Safe to run repeatedly.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, tablePrefix string) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS "pgcrypto"`); err != nil {
		return fmt.Errorf("enable pgcrypto: %w", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			description TEXT,
			file_path TEXT NOT NULL DEFAULT '',
			file_size BIGINT NOT NULL DEFAULT 0,
			mime_type TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			status TEXT NOT NULL DEFAULT 'active',
			owner_id UUID NOT NULL,
			parent_folder_id UUID REFERENCES ` + tables.Documents + `(id) ON DELETE SET NULL,
			is_folder BOOLEAN NOT NULL DEFAULT FALSE,
			tags TEXT[] NOT NULL DEFAULT '{}',
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.DocumentVersions + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			version INTEGER NOT NULL,
			file_path TEXT NOT NULL,
			file_size BIGINT NOT NULL DEFAULT 0,
			comment TEXT,
			created_by UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(document_id, version)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Groups + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL UNIQUE,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.GroupMembers + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			group_id UUID NOT NULL REFERENCES ` + tables.Groups + `(id) ON DELETE CASCADE,
			user_id UUID NOT NULL,
			role TEXT NOT NULL DEFAULT 'member',
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(group_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.DocumentPermissions + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			user_id UUID NOT NULL,
			permission TEXT NOT NULL,
			granted_by UUID NOT NULL,
			granted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.GroupPermissions + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			group_id UUID NOT NULL REFERENCES ` + tables.Groups + `(id) ON DELETE CASCADE,
			permission TEXT NOT NULL,
			granted_by UUID NOT NULL,
			granted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.ShareLinks + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			token TEXT NOT NULL UNIQUE,
			created_by UUID NOT NULL,
			permission TEXT NOT NULL,
			password_hash TEXT,
			max_access_count INTEGER CHECK (max_access_count IS NULL OR max_access_count > 0),
			access_count INTEGER NOT NULL DEFAULT 0,
			expires_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.AccessLogs + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			user_id UUID,
			action TEXT NOT NULL,
			ip_address TEXT,
			user_agent TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.SearchDocuments + ` (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			tags TEXT[] NOT NULL DEFAULT '{}',
			mime_type TEXT NOT NULL,
			owner_id UUID NOT NULL,
			is_folder BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			search_vector TSVECTOR NOT NULL DEFAULT ''::tsvector
		)`,
		`ALTER TABLE ` + tables.SearchDocuments + ` ADD COLUMN IF NOT EXISTS search_vector TSVECTOR NOT NULL DEFAULT ''::tsvector`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	p := tablePrefix
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + p + `documents_owner_parent ON ` + tables.Documents + `(owner_id, parent_folder_id) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `document_versions_doc ON ` + tables.DocumentVersions + `(document_id, version DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `group_members_user ON ` + tables.GroupMembers + `(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `document_permissions_lookup ON ` + tables.DocumentPermissions + `(document_id, user_id, permission)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `group_permissions_lookup ON ` + tables.GroupPermissions + `(document_id, group_id, permission)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `share_links_document ON ` + tables.ShareLinks + `(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `access_logs_document ON ` + tables.AccessLogs + `(document_id, created_at DESC)`,
		`DROP INDEX IF EXISTS idx_` + p + `search_documents_fts`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `search_documents_vector ON ` + tables.SearchDocuments + ` USING GIN (search_vector)`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}

// DropSchema drops every table, dependents first
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, logger *slog.Logger) error {
	all := tables.All()
	for i := len(all) - 1; i >= 0; i-- {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+all[i]+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", all[i], err)
		}
		logger.Info("dropped table", "table", all[i])
	}
	return nil
}
