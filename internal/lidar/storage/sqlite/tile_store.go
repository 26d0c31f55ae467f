package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/pointcloud.labeler/internal/lidar/l3grid"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// essentialPragmas are applied to every connection opened by Open.
var essentialPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// TileInfo describes a stored elevation tile without its surface.
type TileInfo struct {
	TileCode          string
	ImportID          string
	ImportedUnixNanos int64
	Cols, Rows        int
	MinX, MinY        float64
	MaxX, MaxY        float64
	SourcePath        string
}

// TileStore persists elevation tiles in SQLite. It implements l3grid.Source
// and is safe for concurrent use through database/sql.
type TileStore struct {
	db     *sql.DB
	ownsDB bool
}

// Open opens (or creates) the SQLite database at path, applies pragmas and
// runs pending migrations.
func Open(path string) (*TileStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	for _, pragma := range essentialPragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	s, err := NewTileStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// NewTileStore wraps an existing database and migrates it to the latest
// schema version. The caller keeps ownership of db.
func NewTileStore(db *sql.DB) (*TileStore, error) {
	if err := migrateUp(db); err != nil {
		return nil, err
	}
	return &TileStore{db: db}, nil
}

// migrateUp runs all pending embedded migrations.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	// Note: We don't close m here because it would close the underlying DB connection.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// migrateLogger implements migrate.Logger interface
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	log.Printf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

// Close closes the database if it was opened by Open.
func (s *TileStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

// PutTile inserts or replaces a tile. A fresh import id is generated for
// every write.
func (s *TileStore) PutTile(ctx context.Context, t *l3grid.Tile, sourcePath string) (*TileInfo, error) {
	blob, err := l3grid.EncodeSurface(t)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tile %q: %w", t.Code, err)
	}
	minX, minY, maxX, maxY := t.Extent()
	info := &TileInfo{
		TileCode:          t.Code,
		ImportID:          uuid.New().String(),
		ImportedUnixNanos: time.Now().UnixNano(),
		Cols:              len(t.X),
		Rows:              len(t.Y),
		MinX:              minX,
		MinY:              minY,
		MaxX:              maxX,
		MaxY:              maxY,
		SourcePath:        sourcePath,
	}

	query := `
		INSERT INTO elevation_tiles (
			tile_code, import_id, imported_unix_nanos, n_cols, n_rows,
			min_x, min_y, max_x, max_y, surface_blob, source_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tile_code) DO UPDATE SET
			import_id = excluded.import_id,
			imported_unix_nanos = excluded.imported_unix_nanos,
			n_cols = excluded.n_cols,
			n_rows = excluded.n_rows,
			min_x = excluded.min_x,
			min_y = excluded.min_y,
			max_x = excluded.max_x,
			max_y = excluded.max_y,
			surface_blob = excluded.surface_blob,
			source_path = excluded.source_path
	`
	_, err = s.db.ExecContext(ctx, query,
		info.TileCode, info.ImportID, info.ImportedUnixNanos, info.Cols, info.Rows,
		info.MinX, info.MinY, info.MaxX, info.MaxY, blob, info.SourcePath,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert tile %q: %w", t.Code, err)
	}
	return info, nil
}

// LoadTile implements l3grid.Source. A missing tile yields an error wrapping
// l3grid.ErrTileNotFound.
func (s *TileStore) LoadTile(ctx context.Context, code string) (*l3grid.Tile, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT surface_blob FROM elevation_tiles WHERE tile_code = ?`, code,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", l3grid.ErrTileNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tile %q: %w", code, err)
	}
	t, err := l3grid.DecodeSurface(code, blob)
	if err != nil {
		return nil, fmt.Errorf("failed to decode tile %q: %w", code, err)
	}
	return t, nil
}

// ListTiles returns metadata for all stored tiles ordered by tile code.
func (s *TileStore) ListTiles(ctx context.Context) ([]TileInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tile_code, import_id, imported_unix_nanos, n_cols, n_rows,
		       min_x, min_y, max_x, max_y, source_path
		FROM elevation_tiles
		ORDER BY tile_code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiles: %w", err)
	}
	defer rows.Close()

	var tiles []TileInfo
	for rows.Next() {
		var ti TileInfo
		if err := rows.Scan(&ti.TileCode, &ti.ImportID, &ti.ImportedUnixNanos, &ti.Cols, &ti.Rows,
			&ti.MinX, &ti.MinY, &ti.MaxX, &ti.MaxY, &ti.SourcePath); err != nil {
			return nil, fmt.Errorf("failed to scan tile: %w", err)
		}
		tiles = append(tiles, ti)
	}
	return tiles, rows.Err()
}

// DeleteTile removes a tile. Deleting a missing tile yields
// l3grid.ErrTileNotFound.
func (s *TileStore) DeleteTile(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM elevation_tiles WHERE tile_code = ?`, code)
	if err != nil {
		return fmt.Errorf("failed to delete tile %q: %w", code, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", l3grid.ErrTileNotFound, code)
	}
	return nil
}

// Verify at compile time that *TileStore implements l3grid.Source.
var _ l3grid.Source = (*TileStore)(nil)
