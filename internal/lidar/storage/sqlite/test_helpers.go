package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/banshee-data/pointcloud.labeler/internal/lidar/l3grid"
)

// setupTileStoreTestDB opens a migrated tile store in a temporary directory.
// The store is closed automatically when the test ends.
func setupTileStoreTestDB(t *testing.T) *TileStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "tiles.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open tile store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// makeTestTile builds a small sloped tile anchored at the given tile code.
func makeTestTile(t *testing.T, code string) *l3grid.Tile {
	t.Helper()

	bounds, err := l3grid.ParseTileCode(code, l3grid.DefaultTileSizeM)
	if err != nil {
		t.Fatalf("bad tile code %q: %v", code, err)
	}
	x := []float64{bounds.MinX, bounds.MinX + 25, bounds.MaxX}
	y := []float64{bounds.MinY, bounds.MaxY}
	surface := []float64{
		1.0, 1.5, 2.0,
		1.2, 1.7, 2.2,
	}
	tile, err := l3grid.NewTile(code, x, y, surface)
	if err != nil {
		t.Fatalf("Failed to build tile: %v", err)
	}
	return tile
}
