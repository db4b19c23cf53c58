package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"docvault/internal/domain"
	models "docvault/internal/domain/models/docsystem"
	"docvault/internal/domain/models/access"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
	"docvault/internal/repository/postgres"
)

// PostgresSearchIndex keeps a search projection of documents in its own table
// and queries it with PostgreSQL full-text search.
type PostgresSearchIndex struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewSearchIndex creates a new full-text search index
func NewSearchIndex(config *postgres.RepositoryConfig) docsysRepo.SearchIndex {
	return &PostgresSearchIndex{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// searchConfig is the text search configuration used both when a document is
// indexed and when it is queried. The two must agree for the GIN index to apply.
const searchConfig = "english"

// fieldWeights maps searchable fields to the tsvector weight they are stored under
var fieldWeights = map[models.SearchField]string{
	models.SearchFieldName:        "a",
	models.SearchFieldDescription: "b",
	models.SearchFieldTags:        "c",
}

// rankWeights are the ts_rank weights in {D, C, B, A} order; names rank 2x
const rankWeights = "'{0, 0.5, 0.5, 1.0}'"

// Index inserts or replaces a document in the index. search_vector is
// computed here: name as A, description as B, tags as C.
func (s *PostgresSearchIndex) Index(ctx context.Context, doc *models.IndexedDocument) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (id, name, description, tags, mime_type, owner_id, is_folder, created_at, updated_at, search_vector)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9,
			setweight(to_tsvector('%[2]s', $2::text), 'A') ||
			setweight(to_tsvector('%[2]s', coalesce($3::text, '')), 'B') ||
			setweight(to_tsvector('%[2]s', array_to_string($4::text[], ' ')), 'C'))
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			tags = EXCLUDED.tags,
			mime_type = EXCLUDED.mime_type,
			owner_id = EXCLUDED.owner_id,
			is_folder = EXCLUDED.is_folder,
			updated_at = EXCLUDED.updated_at,
			search_vector = EXCLUDED.search_vector
	`, s.tables.SearchDocuments, searchConfig)

	executor := postgres.GetExecutor(ctx, s.pool)
	_, err := executor.Exec(ctx, query,
		doc.ID,
		doc.Name,
		doc.Description,
		doc.Tags,
		doc.MimeType,
		doc.OwnerID,
		doc.IsFolder,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	return nil
}

// Remove deletes a document from the index
func (s *PostgresSearchIndex) Remove(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.tables.SearchDocuments)

	executor := postgres.GetExecutor(ctx, s.pool)
	if _, err := executor.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("remove from index: %w", err)
	}
	return nil
}

// Search runs a ranked full-text query restricted to documents the viewer can read.
//
//   - search_vector @@ websearch_to_tsquery does the matching and uses the GIN
//     index; the query string accepts quoted phrases, OR and -negation.
//   - A field subset is applied with ts_filter on the stored weights.
//   - ts_rank scores with name matches weighted 2x.
//   - Readability uses the same tables as the permission resolver: owner,
//     live direct read grant, or live group read grant.
func (s *PostgresSearchIndex) Search(ctx context.Context, opts *models.SearchOptions) (*models.SearchResults, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	where, rank, args := s.buildConditions(opts)

	query := fmt.Sprintf(`
		SELECT s.id, s.name, s.description, s.tags, s.mime_type, s.owner_id, s.is_folder,
		       s.created_at, s.updated_at, (%s) AS rank_score
		FROM %s s
		WHERE %s
		ORDER BY rank_score DESC, s.updated_at DESC
		LIMIT $%d OFFSET $%d
	`, rank, s.tables.SearchDocuments, where, len(args)+1, len(args)+2)

	executor := postgres.GetExecutor(ctx, s.pool)
	rows, err := executor.Query(ctx, query, append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("full-text search query failed: %w", err)
	}
	defer rows.Close()

	results := []models.SearchResult{}
	for rows.Next() {
		var hit models.SearchResult
		d := &hit.Document
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.Tags, &d.MimeType, &d.OwnerID, &d.IsFolder,
			&d.CreatedAt, &d.UpdatedAt, &hit.Score); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search results: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s s WHERE %s`, s.tables.SearchDocuments, where)
	var total int
	if err := executor.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count total matches: %w", err)
	}

	return models.NewSearchResults(results, total, opts), nil
}

// buildConditions returns the WHERE clause, the rank expression and their
// positional arguments. $1 is the query, $2 the viewer.
func (s *PostgresSearchIndex) buildConditions(opts *models.SearchOptions) (string, string, []interface{}) {
	tsquery := fmt.Sprintf("websearch_to_tsquery('%s', $1)", searchConfig)
	match := "s.search_vector @@ " + tsquery
	vector := "s.search_vector"

	if len(opts.Fields) < len(fieldWeights) {
		weights := make([]string, 0, len(opts.Fields))
		for _, field := range opts.Fields {
			weights = append(weights, fieldWeights[field])
		}
		slices.Sort(weights)
		vector = fmt.Sprintf("ts_filter(s.search_vector, '{%s}')", strings.Join(slices.Compact(weights), ","))
		match += " AND " + vector + " @@ " + tsquery
	}
	rank := fmt.Sprintf("ts_rank(%s, %s, %s)", rankWeights, vector, tsquery)

	live := "(%[1]s.expires_at IS NULL OR %[1]s.expires_at > NOW())"
	conditions := []string{
		"(" + match + ")",
		fmt.Sprintf(`EXISTS (SELECT 1 FROM %s d WHERE d.id = s.id AND d.deleted_at IS NULL)`, s.tables.Documents),
		fmt.Sprintf(`(s.owner_id = $2
			OR EXISTS (SELECT 1 FROM %s p WHERE p.document_id = s.id AND p.user_id = $2
			           AND p.permission = '%s' AND %s)
			OR EXISTS (SELECT 1 FROM %s gp JOIN %s gm ON gm.group_id = gp.group_id
			           WHERE gp.document_id = s.id AND gm.user_id = $2
			           AND gp.permission = '%s' AND %s))`,
			s.tables.DocumentPermissions, access.LevelRead, fmt.Sprintf(live, "p"),
			s.tables.GroupPermissions, s.tables.GroupMembers, access.LevelRead, fmt.Sprintf(live, "gp")),
	}
	args := []interface{}{opts.Query, opts.ViewerID}

	if opts.OwnerID != "" {
		args = append(args, opts.OwnerID)
		conditions = append(conditions, fmt.Sprintf("s.owner_id = $%d", len(args)))
	}
	if opts.MimeType != "" {
		args = append(args, opts.MimeType)
		conditions = append(conditions, fmt.Sprintf("s.mime_type = $%d", len(args)))
	}
	if opts.IsFolder != nil {
		args = append(args, *opts.IsFolder)
		conditions = append(conditions, fmt.Sprintf("s.is_folder = $%d", len(args)))
	}

	return strings.Join(conditions, " AND "), rank, args
}
