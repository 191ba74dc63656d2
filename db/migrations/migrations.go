// Package migrations embeds the SQL schema so the server, the seeder and the
// integration tests apply exactly the same files.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed *.sql
var files embed.FS

// Execer is implemented by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Names lists the up migrations in the order they are applied.
func Names() ([]string, error) {
	names, err := fs.Glob(files, "*_*.up.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// downNames lists the down migrations in the order they are applied, newest
// first.
func downNames() ([]string, error) {
	names, err := fs.Glob(files, "*_*.down.sql")
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Up applies every up migration. The files are written to be idempotent.
func Up(ctx context.Context, db Execer) error {
	names, err := Names()
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	if len(names) == 0 {
		return fmt.Errorf("no migration files found")
	}
	return run(ctx, db, names)
}

// Down reverts every migration, dropping the schema and its data.
func Down(ctx context.Context, db Execer) error {
	names, err := downNames()
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	return run(ctx, db, names)
}

func run(ctx context.Context, db Execer, names []string) error {
	for _, name := range names {
		payload, err := files.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.Exec(ctx, string(payload)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}
