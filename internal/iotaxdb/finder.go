// Package iotaxdb maintains a local cache of NCBI taxonomy names
// and resolves Latin names to taxonomy identifiers.
// This is an impure I/O package: it downloads the taxdump archive
// and queries an SQLite database built from it.
package iotaxdb

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	gntaxid "github.com/gnames/gntaxid/pkg"
	"github.com/gnames/gntaxid/pkg/config"
	"github.com/gnames/gntaxid/pkg/parserpool"
	"github.com/gnames/gntaxid/pkg/record"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	archiveFile = "taxdump.tar.gz"
	dbFile      = "names.sqlite"
	metaFile    = "meta.yaml"
	namesDmp    = "names.dmp"
)

// finder implements the Finder interface.
type finder struct {
	db   *sql.DB
	pool parserpool.Pool
}

// New opens the local taxonomy database. It fails when the database
// has not been built yet, pointing the user at the fetch command.
func New(cfg *config.Config, pool parserpool.Pool) (gntaxid.Finder, error) {
	dir := cfg.TaxCacheDir()
	path := filepath.Join(dir, dbFile)
	if _, err := os.Stat(path); err != nil {
		return nil, MissingError(path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, OpenError(path, err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, OpenError(path, err)
	}

	// A garbage or half-written file only fails on first use, so
	// probe the schema at open time.
	var tables int
	err = db.QueryRow(
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'names'",
	).Scan(&tables)
	if err != nil {
		db.Close()
		return nil, OpenError(path, err)
	}
	if tables == 0 {
		db.Close()
		return nil, OpenError(path, errors.New("names table is missing"))
	}

	if m, err := readMeta(filepath.Join(dir, metaFile)); err == nil {
		slog.Info("Using taxonomy database",
			"path", path,
			"names", m.NamesNum,
			"fetched_at", m.FetchedAt,
		)
	}

	return &finder{db: db, pool: pool}, nil
}

// TaxID resolves a Latin name to its taxonomy identifier. The name
// is queried in its canonical form first, then verbatim. A name
// matching several taxa resolves conservatively to not-found.
func (f *finder) TaxID(ctx context.Context, latin string) (int, error) {
	latin = record.Clean(latin)
	if latin == "" {
		return 0, gntaxid.ErrNotFound
	}

	names := []string{latin}
	if can, ok := f.pool.Canonical(latin); ok && can != "" && can != latin {
		names = []string{can, latin}
	}

	for _, name := range names {
		id, err := f.queryName(ctx, name)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, gntaxid.ErrNotFound) {
			return 0, err
		}
	}
	return 0, gntaxid.ErrNotFound
}

// queryName returns the identifier for an exact name match.
// Matches with the "scientific name" class shadow synonym matches.
func (f *finder) queryName(ctx context.Context, name string) (int, error) {
	rows, err := f.db.QueryContext(ctx,
		"SELECT tax_id, class FROM names WHERE name = ?", name,
	)
	if err != nil {
		return 0, QueryError(name, err)
	}
	defer rows.Close()

	sci := make(map[int]struct{})
	all := make(map[int]struct{})
	for rows.Next() {
		var id int
		var class string
		if err = rows.Scan(&id, &class); err != nil {
			return 0, QueryError(name, err)
		}
		all[id] = struct{}{}
		if class == "scientific name" {
			sci[id] = struct{}{}
		}
	}
	if err = rows.Err(); err != nil {
		return 0, QueryError(name, err)
	}

	ids := all
	if len(sci) > 0 {
		ids = sci
	}
	if len(ids) != 1 {
		return 0, gntaxid.ErrNotFound
	}
	for id := range ids {
		return id, nil
	}
	return 0, gntaxid.ErrNotFound
}

func (f *finder) Close() error {
	return f.db.Close()
}
