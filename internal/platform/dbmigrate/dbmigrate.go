// Package dbmigrate applies a service's embedded SQL migrations against its
// pgx pool at startup. Grounded on r3e-network-service_layer's
// system/platform/migrations/migrations.go, ported from database/sql to
// pgx/v5 to match the teacher's driver choice. Each migration file must be
// idempotent (IF NOT EXISTS guards) since Apply re-runs the full set on
// every process start.
package dbmigrate

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Apply executes every *.sql file in fsys, in lexical filename order,
// inside a single transaction per file.
func Apply(ctx context.Context, pool *pgxpool.Pool, fsys embed.FS) error {
	entries, err := fsys.ReadDir(".")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		contents, err := fsys.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.Exec(ctx, string(contents)); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}
	return nil
}
