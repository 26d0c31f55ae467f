package l3grid

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrTileNotFound is returned by accessors when no elevation data exists for
// a tile code. Callers test for it with errors.Is.
var ErrTileNotFound = errors.New("elevation tile not found")

// ErrInvalidTile is returned when a tile's axes and surface are inconsistent.
var ErrInvalidTile = errors.New("invalid elevation tile")

// Tile is a rectangular grid of ground elevation samples.
//
// Surface has len(Y) rows and len(X) columns: Surface.At(j, i) is the ground
// height at (X[i], Y[j]). Missing samples are NaN.
type Tile struct {
	Code    string
	X       []float64
	Y       []float64
	Surface *mat.Dense
}

// NewTile builds a tile from row-major surface values (len(y) rows of
// len(x) values) and validates it.
func NewTile(code string, x, y []float64, surface []float64) (*Tile, error) {
	if len(x) == 0 || len(y) == 0 {
		return nil, fmt.Errorf("%w: empty axis (x=%d, y=%d)", ErrInvalidTile, len(x), len(y))
	}
	if len(surface) != len(x)*len(y) {
		return nil, fmt.Errorf("%w: surface has %d values, want %d", ErrInvalidTile, len(surface), len(x)*len(y))
	}
	t := &Tile{
		Code:    code,
		X:       append([]float64(nil), x...),
		Y:       append([]float64(nil), y...),
		Surface: mat.NewDense(len(y), len(x), append([]float64(nil), surface...)),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that both axes are finite and strictly increasing and that
// the surface dimensions match them.
func (t *Tile) Validate() error {
	if t == nil || t.Surface == nil {
		return fmt.Errorf("%w: missing surface", ErrInvalidTile)
	}
	if err := validateAxis("x", t.X); err != nil {
		return err
	}
	if err := validateAxis("y", t.Y); err != nil {
		return err
	}
	rows, cols := t.Surface.Dims()
	if rows != len(t.Y) || cols != len(t.X) {
		return fmt.Errorf("%w: surface is %dx%d, axes want %dx%d", ErrInvalidTile, rows, cols, len(t.Y), len(t.X))
	}
	return nil
}

func validateAxis(name string, axis []float64) error {
	if len(axis) == 0 {
		return fmt.Errorf("%w: empty %s axis", ErrInvalidTile, name)
	}
	if floats.HasNaN(axis) {
		return fmt.Errorf("%w: %s axis contains NaN", ErrInvalidTile, name)
	}
	for i := range axis {
		if math.IsInf(axis[i], 0) {
			return fmt.Errorf("%w: %s axis contains Inf", ErrInvalidTile, name)
		}
		if i > 0 && axis[i] <= axis[i-1] {
			return fmt.Errorf("%w: %s axis not strictly increasing at index %d", ErrInvalidTile, name, i)
		}
	}
	return nil
}

// Extent returns the planimetric bounds covered by the grid.
func (t *Tile) Extent() (minX, minY, maxX, maxY float64) {
	return t.X[0], t.Y[0], t.X[len(t.X)-1], t.Y[len(t.Y)-1]
}

// Contains reports whether (x, y) lies inside the grid extent (inclusive).
func (t *Tile) Contains(x, y float64) bool {
	minX, minY, maxX, maxY := t.Extent()
	return x >= minX && x <= maxX && y >= minY && y <= maxY
}

// Values returns the surface in row-major order.
func (t *Tile) Values() []float64 {
	rows, cols := t.Surface.Dims()
	out := make([]float64, 0, rows*cols)
	for j := 0; j < rows; j++ {
		out = append(out, mat.Row(nil, j, t.Surface)...)
	}
	return out
}

// Accessor returns the ground surface tile for a tile code. Implementations
// must return an error wrapping ErrTileNotFound when the tile is absent and
// must be safe for concurrent use.
type Accessor interface {
	Tile(code string) (*Tile, error)
}

// Source loads tiles from a slow backend such as a database. TileCache adapts
// a Source into an Accessor.
type Source interface {
	LoadTile(ctx context.Context, code string) (*Tile, error)
}

// TileFromPoints grids scattered (x, y, z) samples that lie on a regular
// lattice, such as an exported ASC ground grid. Cells without a sample are NaN.
func TileFromPoints(code string, xs, ys, zs []float64) (*Tile, error) {
	if len(xs) != len(ys) || len(xs) != len(zs) {
		return nil, fmt.Errorf("%w: coordinate slices differ in length", ErrInvalidTile)
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrInvalidTile)
	}
	for k := range xs {
		if !isFinite(xs[k]) || !isFinite(ys[k]) || math.IsInf(zs[k], 0) {
			return nil, fmt.Errorf("%w: non-finite sample %d at (%v, %v, %v)", ErrInvalidTile, k, xs[k], ys[k], zs[k])
		}
	}
	xAxis := uniqueSorted(xs)
	yAxis := uniqueSorted(ys)

	surface := make([]float64, len(xAxis)*len(yAxis))
	for i := range surface {
		surface[i] = math.NaN()
	}
	for k := range xs {
		i := sort.SearchFloat64s(xAxis, xs[k])
		j := sort.SearchFloat64s(yAxis, ys[k])
		surface[j*len(xAxis)+i] = zs[k]
	}
	return NewTile(code, xAxis, yAxis, surface)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func uniqueSorted(v []float64) []float64 {
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	out := s[:0]
	for i, x := range s {
		if i == 0 || x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}
