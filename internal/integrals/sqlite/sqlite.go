// Package sqlite stores MO integrals in a SQLite archive.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rodriguezariascarlos/tccm-homeworks/internal/domain"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/tensor"
)

//go:embed schema.sql
var schemaSQL string

const (
	keyNuclearRepulsion = "nuclear_repulsion"
	keyOccupied         = "n_occ"
	keyMOCount          = "mo_count"
	keyArchiveID        = "archive_id"
	keyCreatedAt        = "created_at"
)

// Store implements domain.IntegralLoader and domain.IntegralWriter.
type Store struct{}

// NewStore creates a SQLite integral store.
func NewStore() *Store { return &Store{} }

// Name returns the identifier of this store.
func (s *Store) Name() string { return "sqlite" }

// Load reads an archive written by Write.
func (s *Store) Load(ctx context.Context, path string) (*domain.MOIntegrals, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db, err := openReadOnly(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer db.Close()

	in, err := readArchive(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// openReadOnly opens path with mode=ro. The driver only honours URI
// parameters when the DSN carries the file: scheme.
func openReadOnly(path string) (*sql.DB, error) {
	return sql.Open("sqlite", "file:"+path+"?mode=ro")
}

func readArchive(ctx context.Context, db *sql.DB) (*domain.MOIntegrals, error) {
	meta, err := readMeta(ctx, db)
	if err != nil {
		return nil, err
	}
	in := &domain.MOIntegrals{}
	if in.NuclearRepulsion, err = metaFloat(meta, keyNuclearRepulsion); err != nil {
		return nil, err
	}
	if in.OccupiedCount, err = metaInt(meta, keyOccupied); err != nil {
		return nil, err
	}
	if in.MOCount, err = metaInt(meta, keyMOCount); err != nil {
		return nil, err
	}
	n := in.MOCount
	if n <= 0 {
		return nil, fmt.Errorf("%w: mo_count must be positive, got %d", domain.ErrInvalidIntegrals, n)
	}
	if err := tensor.CheckSize(n, 0); err != nil {
		return nil, fmt.Errorf("%w: mo_count %d: %w", domain.ErrInvalidIntegrals, n, err)
	}

	in.OneElectron = make([]float64, n*n)
	err = queryRows(ctx, db, `SELECT i, j, value FROM one_electron`, func(rows *sql.Rows) error {
		var i, j int
		var v float64
		if err := rows.Scan(&i, &j, &v); err != nil {
			return err
		}
		if i < 0 || i >= n || j < 0 || j >= n {
			return fmt.Errorf("%w: one-electron index (%d,%d) out of range", domain.ErrInvalidIntegrals, i, j)
		}
		in.OneElectron[i*n+j] = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read one_electron: %w", err)
	}

	err = queryRows(ctx, db, `SELECT i, j, k, l, value FROM eri ORDER BY seq`, func(rows *sql.Rows) error {
		var r domain.ERIRecord
		if err := rows.Scan(&r.I, &r.J, &r.K, &r.L, &r.Value); err != nil {
			return err
		}
		in.ERI = append(in.ERI, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read eri: %w", err)
	}

	var eps []float64
	err = queryRows(ctx, db, `SELECT i, value FROM orbital_energy ORDER BY i`, func(rows *sql.Rows) error {
		var i int
		var v float64
		if err := rows.Scan(&i, &v); err != nil {
			return err
		}
		if i != len(eps) {
			return fmt.Errorf("%w: orbital energy %d missing", domain.ErrInvalidIntegrals, len(eps))
		}
		eps = append(eps, v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read orbital_energy: %w", err)
	}
	in.OrbitalEnergies = eps
	return in, nil
}

func readMeta(ctx context.Context, db *sql.DB) (map[string]string, error) {
	meta := map[string]string{}
	err := queryRows(ctx, db, `SELECT key, value FROM meta`, func(rows *sql.Rows) error {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		meta[k] = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	return meta, nil
}

func queryRows(ctx context.Context, db *sql.DB, query string, scan func(*sql.Rows) error) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func metaFloat(meta map[string]string, key string) (float64, error) {
	raw, ok := meta[key]
	if !ok {
		return 0, fmt.Errorf("%w: meta key %q missing", domain.ErrInvalidIntegrals, key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: meta %s=%q: %v", domain.ErrInvalidIntegrals, key, raw, err)
	}
	return v, nil
}

func metaInt(meta map[string]string, key string) (int, error) {
	raw, ok := meta[key]
	if !ok {
		return 0, fmt.Errorf("%w: meta key %q missing", domain.ErrInvalidIntegrals, key)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: meta %s=%q: %v", domain.ErrInvalidIntegrals, key, raw, err)
	}
	return v, nil
}

// Write replaces the contents of the archive at path with in.
func (s *Store) Write(ctx context.Context, path string, in *domain.MOIntegrals) error {
	if err := in.Validate(); err != nil {
		return err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"meta", "one_electron", "eri", "orbital_energy"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	meta := map[string]string{
		keyNuclearRepulsion: strconv.FormatFloat(in.NuclearRepulsion, 'g', -1, 64),
		keyOccupied:         strconv.Itoa(in.OccupiedCount),
		keyMOCount:          strconv.Itoa(in.MOCount),
		keyArchiveID:        uuid.New().String(),
		keyCreatedAt:        time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("insert meta %s: %w", k, err)
		}
	}

	n := in.MOCount
	if err := insertEach(ctx, tx, `INSERT INTO one_electron (i, j, value) VALUES (?, ?, ?)`, len(in.OneElectron), func(p int) ([]any, bool) {
		v := in.OneElectron[p]
		return []any{p / n, p % n, v}, v != 0
	}); err != nil {
		return fmt.Errorf("insert one_electron: %w", err)
	}
	if err := insertEach(ctx, tx, `INSERT INTO eri (seq, i, j, k, l, value) VALUES (?, ?, ?, ?, ?, ?)`, len(in.ERI), func(p int) ([]any, bool) {
		r := in.ERI[p]
		return []any{p, r.I, r.J, r.K, r.L, r.Value}, true
	}); err != nil {
		return fmt.Errorf("insert eri: %w", err)
	}
	if err := insertEach(ctx, tx, `INSERT INTO orbital_energy (i, value) VALUES (?, ?)`, len(in.OrbitalEnergies), func(p int) ([]any, bool) {
		return []any{p, in.OrbitalEnergies[p]}, true
	}); err != nil {
		return fmt.Errorf("insert orbital_energy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// insertEach runs a prepared statement for p in [0, count) when args reports true.
func insertEach(ctx context.Context, tx *sql.Tx, query string, count int, args func(p int) ([]any, bool)) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for p := 0; p < count; p++ {
		a, ok := args(p)
		if !ok {
			continue
		}
		if _, err := stmt.ExecContext(ctx, a...); err != nil {
			return err
		}
	}
	return nil
}
