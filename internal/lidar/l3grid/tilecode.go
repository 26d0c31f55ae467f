package l3grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultTileSizeM is the edge length of a tile in metres.
const DefaultTileSizeM = 50.0

// TileBounds is the planimetric extent of a tile.
type TileBounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Contains reports whether (x, y) lies in the half-open tile extent
// [MinX, MaxX) x [MinY, MaxY).
func (b TileBounds) Contains(x, y float64) bool {
	return x >= b.MinX && x < b.MaxX && y >= b.MinY && y < b.MaxY
}

// ParseTileCode converts a tile code of the form "<col>_<row>" into its
// extent, where the tile's lower-left corner is (col*size, row*size).
func ParseTileCode(code string, size float64) (TileBounds, error) {
	if !(size > 0) {
		return TileBounds{}, fmt.Errorf("tile size must be positive, got %f", size)
	}
	parts := strings.Split(code, "_")
	if len(parts) != 2 {
		return TileBounds{}, fmt.Errorf("invalid tile code %q: want <col>_<row>", code)
	}
	col, err := strconv.Atoi(parts[0])
	if err != nil {
		return TileBounds{}, fmt.Errorf("invalid tile code %q: %w", code, err)
	}
	row, err := strconv.Atoi(parts[1])
	if err != nil {
		return TileBounds{}, fmt.Errorf("invalid tile code %q: %w", code, err)
	}
	minX := float64(col) * size
	minY := float64(row) * size
	return TileBounds{MinX: minX, MinY: minY, MaxX: minX + size, MaxY: minY + size}, nil
}

// TileCodeForPoint returns the code of the tile containing (x, y).
func TileCodeForPoint(x, y, size float64) string {
	col := int(math.Floor(x / size))
	row := int(math.Floor(y / size))
	return fmt.Sprintf("%d_%d", col, row)
}
