package l3grid

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// planeTile builds a 3x3 tile over [0,10]x[0,10] with z = x + y.
func planeTile(t *testing.T, code string) *Tile {
	t.Helper()
	x := []float64{0, 5, 10}
	y := []float64{0, 5, 10}
	var surface []float64
	for _, yv := range y {
		for _, xv := range x {
			surface = append(surface, xv+yv)
		}
	}
	tile, err := NewTile(code, x, y, surface)
	require.NoError(t, err)
	return tile
}

// =============================================================================
// Tests: Tile
// =============================================================================

func TestNewTile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		x, y    []float64
		surface []float64
	}{
		{"empty x", nil, []float64{0}, nil},
		{"wrong surface size", []float64{0, 1}, []float64{0, 1}, []float64{1, 2, 3}},
		{"x not increasing", []float64{0, 0}, []float64{0}, []float64{1, 2}},
		{"y decreasing", []float64{0}, []float64{1, 0}, []float64{1, 2}},
		{"nan axis", []float64{0, math.NaN()}, []float64{0}, []float64{1, 2}},
		{"inf axis", []float64{0}, []float64{0, math.Inf(1)}, []float64{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTile("1_1", tt.x, tt.y, tt.surface)
			if !errors.Is(err, ErrInvalidTile) {
				t.Errorf("expected ErrInvalidTile, got %v", err)
			}
		})
	}
}

func TestTile_ExtentAndContains(t *testing.T) {
	tile := planeTile(t, "0_0")
	minX, minY, maxX, maxY := tile.Extent()
	assert.Equal(t, [4]float64{0, 0, 10, 10}, [4]float64{minX, minY, maxX, maxY})
	assert.True(t, tile.Contains(10, 0))
	assert.False(t, tile.Contains(10.01, 0))
}

func TestTileFromPoints(t *testing.T) {
	xs := []float64{1, 0, 0, 1, 2}
	ys := []float64{0, 0, 1, 1, 1}
	zs := []float64{10, 0, 100, 110, 120}

	tile, err := TileFromPoints("0_0", xs, ys, zs)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 1, 2}, tile.X)
	assert.Equal(t, []float64{0, 1}, tile.Y)
	assert.Equal(t, 110.0, tile.Surface.At(1, 1))
	// (2, 0) had no sample
	assert.True(t, math.IsNaN(tile.Surface.At(0, 2)))
}

func TestTileFromPoints_NonFinite(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	tests := map[string]struct {
		xs, ys, zs []float64
	}{
		"NaN x":  {[]float64{0, nan}, []float64{0, 0}, []float64{1, 1}},
		"NaN y":  {[]float64{0, 1}, []float64{nan, 0}, []float64{1, 1}},
		"+Inf x": {[]float64{0, inf}, []float64{0, 0}, []float64{1, 1}},
		"-Inf y": {[]float64{0, 1}, []float64{0, -inf}, []float64{1, 1}},
		"Inf z":  {[]float64{0, 1}, []float64{0, 0}, []float64{1, inf}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := TileFromPoints("0_0", tt.xs, tt.ys, tt.zs)
			assert.ErrorIs(t, err, ErrInvalidTile)
		})
	}
}

func TestTileFromPoints_NaNHeightIsMissingCell(t *testing.T) {
	tile, err := TileFromPoints("0_0", []float64{0, 1}, []float64{0, 0}, []float64{1, math.NaN()})
	require.NoError(t, err)
	assert.Equal(t, 1.0, tile.Surface.At(0, 0))
	assert.True(t, math.IsNaN(tile.Surface.At(0, 1)))
}

// =============================================================================
// Tests: GridInterpolator
// =============================================================================

func TestGridInterpolator_Bilinear(t *testing.T) {
	gi, err := NewGridInterpolator(planeTile(t, "0_0"))
	require.NoError(t, err)

	tests := []struct {
		x, y, want float64
	}{
		{0, 0, 0},
		{5, 5, 10},
		{2.5, 7.5, 10},
		{10, 10, 20},
		{7.5, 1, 8.5},
	}
	for _, tt := range tests {
		assert.InDeltaf(t, tt.want, gi.At(tt.x, tt.y), 1e-9, "At(%v, %v)", tt.x, tt.y)
	}
}

func TestGridInterpolator_ClampsOutsideExtent(t *testing.T) {
	gi, err := NewGridInterpolator(planeTile(t, "0_0"))
	require.NoError(t, err)

	assert.InDelta(t, gi.At(0, 5), gi.At(-50, 5), 1e-9)
	assert.InDelta(t, 20.0, gi.At(15, 20), 1e-9)
	assert.InDelta(t, 10.0, gi.At(10, -3), 1e-9)
	assert.InDelta(t, 7.5, gi.At(-1, 7.5), 1e-9)
}

func TestGridInterpolator_NaNPropagation(t *testing.T) {
	surface := []float64{
		0, 0,
		0, math.NaN(),
	}
	tile, err := NewTile("0_0", []float64{0, 10}, []float64{0, 10}, surface)
	require.NoError(t, err)
	gi, err := NewGridInterpolator(tile)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(gi.At(5, 5)), "cell touching NaN sample")
	assert.Equal(t, 0.0, gi.At(5, 0), "row 0 has no NaN")
	assert.Equal(t, 0.0, gi.At(0, 10), "exact valid sample")
	assert.True(t, math.IsNaN(gi.At(math.NaN(), 1)))
}

func TestGridInterpolator_DegenerateGrids(t *testing.T) {
	single, err := NewTile("0_0", []float64{3}, []float64{4}, []float64{7})
	require.NoError(t, err)
	gi, err := NewGridInterpolator(single)
	require.NoError(t, err)
	assert.Equal(t, 7.0, gi.At(-100, 100))

	// one row: interpolation only along x
	row, err := NewTile("0_0", []float64{0, 10}, []float64{5}, []float64{0, 10})
	require.NoError(t, err)
	gi, err = NewGridInterpolator(row)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, gi.At(4, 99), 1e-9)

	// one column: interpolation only along y
	col, err := NewTile("0_0", []float64{5}, []float64{0, 10}, []float64{0, 10})
	require.NoError(t, err)
	gi, err = NewGridInterpolator(col)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, gi.At(-7, 6), 1e-9)
}

func TestGridInterpolator_Evaluate(t *testing.T) {
	interp, err := DefaultInterpolatorFactory(planeTile(t, "0_0"))
	require.NoError(t, err)

	got, err := interp.Evaluate([][2]float64{{1, 1}, {9, 2}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 2.0, got[0], 1e-9)
	assert.InDelta(t, 11.0, got[1], 1e-9)
}

// =============================================================================
// Tests: Stores and cache
// =============================================================================

type countingSource struct {
	mu    sync.Mutex
	calls map[string]int
	store *MemoryStore
}

func newCountingSource(tiles ...*Tile) *countingSource {
	return &countingSource{calls: make(map[string]int), store: NewMemoryStore(tiles...)}
}

func (s *countingSource) LoadTile(ctx context.Context, code string) (*Tile, error) {
	s.mu.Lock()
	s.calls[code]++
	s.mu.Unlock()
	return s.store.LoadTile(ctx, code)
}

func TestMemoryStore_NotFound(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Tile("1_2")
	assert.ErrorIs(t, err, ErrTileNotFound)
}

func TestMemoryStore_PutAndCodes(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(planeTile(t, "2_2")))
	require.NoError(t, store.Put(planeTile(t, "1_1")))
	assert.Equal(t, []string{"1_1", "2_2"}, store.Codes())

	assert.Error(t, store.Put(&Tile{Code: "bad"}))
}

func TestTileCache_HitsAndEviction(t *testing.T) {
	src := newCountingSource(planeTile(t, "a"), planeTile(t, "b"), planeTile(t, "c"))
	cache := NewTileCache(src, 2)

	for _, code := range []string{"a", "a", "b", "a", "c", "b"} {
		_, err := cache.Tile(code)
		require.NoError(t, err)
	}

	// "b" was evicted when "c" arrived ("a" was more recent), so loaded twice.
	assert.Equal(t, 1, src.calls["a"])
	assert.Equal(t, 2, src.calls["b"])
	assert.Equal(t, 1, src.calls["c"])

	stats := cache.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(4), stats.Misses)
	assert.Equal(t, int64(2), stats.Evictions)
	assert.Equal(t, 2, stats.Size)
}

func TestTileCache_NotFoundIsNotCached(t *testing.T) {
	src := newCountingSource()
	cache := NewTileCache(src, 4)

	for i := 0; i < 2; i++ {
		_, err := cache.Tile("9_9")
		assert.ErrorIs(t, err, ErrTileNotFound)
	}
	assert.Equal(t, 2, src.calls["9_9"])
	assert.Equal(t, 0, cache.Stats().Size)
}

func TestTileCache_Invalidate(t *testing.T) {
	src := newCountingSource(planeTile(t, "a"))
	cache := NewTileCache(src, 0) // clamps to 1

	_, _ = cache.Tile("a")
	cache.Invalidate("a")
	_, _ = cache.Tile("a")
	assert.Equal(t, 2, src.calls["a"])
}

func TestTileCache_ConcurrentReads(t *testing.T) {
	src := newCountingSource(planeTile(t, "a"), planeTile(t, "b"))
	cache := NewTileCache(src, 2)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code := []string{"a", "b"}[i%2]
			tile, err := cache.Tile(code)
			if err != nil || tile.Code != code {
				t.Errorf("unexpected result for %s: %v", code, err)
			}
		}(i)
	}
	wg.Wait()
}

// =============================================================================
// Tests: Tile codes and codec
// =============================================================================

func TestParseTileCode(t *testing.T) {
	b, err := ParseTileCode("2386_9702", DefaultTileSizeM)
	require.NoError(t, err)
	assert.Equal(t, TileBounds{MinX: 119300, MinY: 485100, MaxX: 119350, MaxY: 485150}, b)
	assert.True(t, b.Contains(119300, 485149.9))
	assert.False(t, b.Contains(119350, 485100))

	for _, bad := range []string{"", "12", "a_1", "1_b", "1_2_3"} {
		_, err := ParseTileCode(bad, DefaultTileSizeM)
		assert.Errorf(t, err, "code %q", bad)
	}
	_, err = ParseTileCode("1_1", 0)
	assert.Error(t, err)
}

func TestTileCodeForPoint(t *testing.T) {
	assert.Equal(t, "2386_9702", TileCodeForPoint(119325.4, 485120.1, DefaultTileSizeM))
	assert.Equal(t, "-1_0", TileCodeForPoint(-0.5, 10, DefaultTileSizeM))

	code := TileCodeForPoint(119325.4, 485120.1, DefaultTileSizeM)
	b, err := ParseTileCode(code, DefaultTileSizeM)
	require.NoError(t, err)
	assert.True(t, b.Contains(119325.4, 485120.1))
}

func TestSurfaceCodec(t *testing.T) {
	surface := []float64{1, 2, math.NaN(), 4}
	tile, err := NewTile("5_6", []float64{0, 1}, []float64{0, 1}, surface)
	require.NoError(t, err)

	blob, err := EncodeSurface(tile)
	require.NoError(t, err)
	require.NotEmpty(t, blob)

	back, err := DecodeSurface("5_6", blob)
	require.NoError(t, err)
	assert.Equal(t, "5_6", back.Code)
	assert.Equal(t, tile.X, back.X)
	assert.Equal(t, tile.Y, back.Y)
	assert.Equal(t, 4.0, back.Surface.At(1, 1))
	assert.True(t, math.IsNaN(back.Surface.At(1, 0)))

	_, err = DecodeSurface("5_6", nil)
	assert.Error(t, err)
	_, err = DecodeSurface("5_6", []byte("not gzip"))
	assert.Error(t, err)
}
