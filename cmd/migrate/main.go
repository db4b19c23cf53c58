package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"docvault/internal/config"
	"docvault/internal/repository/postgres"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before applying the schema (fresh start)")
	seedGroup := flag.Bool("seed-group", false, "Create a demo group and add members to it")
	groupName := flag.String("group-name", "demo", "Name of the group created by -seed-group")
	members := flag.String("members", "", "Comma-separated user IDs added to the group by -seed-group")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run -drop-tables in the production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	logger.Info("migrating", "environment", cfg.Environment, "table_prefix", cfg.TablePrefix)

	if *dropTables {
		if err := postgres.DropSchema(ctx, pool, tables, logger); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		logger.Info("tables dropped")
	}

	if err := postgres.ApplySchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	logger.Info("schema ready")

	if *seedGroup {
		userIDs, err := parseMembers(*members)
		if err != nil {
			log.Fatalf("Invalid -members: %v", err)
		}
		groupID, err := ensureGroup(ctx, pool, tables, *groupName, userIDs)
		if err != nil {
			log.Fatalf("Failed to seed group: %v", err)
		}
		logger.Info("group seeded", "group_id", groupID, "name", *groupName, "members", len(userIDs))
	}
}

// parseMembers splits and validates a comma-separated list of user IDs
func parseMembers(raw string) ([]string, error) {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, err := uuid.Parse(part); err != nil {
			return nil, fmt.Errorf("%q is not a UUID", part)
		}
		ids = append(ids, part)
	}
	return ids, nil
}

// ensureGroup creates the group if needed and adds the members idempotently
func ensureGroup(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, name string, userIDs []string) (string, error) {
	var groupID string
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO `+tables.Groups+` (name, description)
			VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, name, "Seeded by cmd/migrate").Scan(&groupID)
		if err != nil {
			return fmt.Errorf("insert group: %w", err)
		}

		for _, userID := range userIDs {
			_, err := tx.Exec(ctx, `
				INSERT INTO `+tables.GroupMembers+` (group_id, user_id)
				VALUES ($1, $2)
				ON CONFLICT (group_id, user_id) DO NOTHING
			`, groupID, userID)
			if err != nil {
				return fmt.Errorf("add member %s: %w", userID, err)
			}
		}
		return nil
	})
	return groupID, err
}
