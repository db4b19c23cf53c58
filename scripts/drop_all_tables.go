package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Drops every table carrying the environment's prefix, including tables left
// behind by older schema versions that cmd/migrate no longer knows about.
func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}
	if env == "prod" {
		log.Fatal("refusing to drop tables in prod")
	}

	prefix := os.Getenv("TABLE_PREFIX")
	if prefix == "" {
		prefix = env + "_"
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }() // Error ignored: script exiting

	rows, err := db.Query(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = current_schema() AND starts_with(tablename, $1)
	`, prefix)
	if err != nil {
		log.Fatalf("Failed to list tables: %v", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			log.Fatalf("Failed to scan table name: %v", err)
		}
		names = append(names, pgx.Identifier{name}.Sanitize())
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("Failed to list tables: %v", err)
	}
	rows.Close()

	if len(names) == 0 {
		fmt.Printf("No tables with prefix %q\n", prefix)
		return
	}

	if _, err := db.Exec("DROP TABLE IF EXISTS " + strings.Join(names, ", ") + " CASCADE"); err != nil {
		log.Fatalf("Failed to drop tables: %v", err)
	}

	fmt.Printf("Dropped %d tables (prefix: %s)\n", len(names), prefix)
}
