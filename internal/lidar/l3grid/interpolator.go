package l3grid

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"
)

// Interpolator estimates ground height at planimetric query positions.
type Interpolator interface {
	// Evaluate returns one height per query, in query order.
	Evaluate(xy [][2]float64) ([]float64, error)
}

// InterpolatorFactory builds an Interpolator for one tile.
type InterpolatorFactory func(t *Tile) (Interpolator, error)

// DefaultInterpolatorFactory builds a GridInterpolator.
func DefaultInterpolatorFactory(t *Tile) (Interpolator, error) {
	return NewGridInterpolator(t)
}

// rowPredictor evaluates one grid row along the x axis.
type rowPredictor interface {
	Predict(x float64) float64
}

// constRow is used for single-column grids.
type constRow float64

func (c constRow) Predict(float64) float64 { return float64(c) }

// GridInterpolator performs bilinear interpolation over a tile's rectilinear
// grid: each row is a piecewise linear function of x, and rows are blended
// linearly in y.
//
// Queries outside the grid extent are clamped to the nearest edge, so a point
// beyond the tile boundary takes the height of the closest boundary location.
// NaN samples (missing data) propagate: any query whose bracketing samples
// include a NaN evaluates to NaN, except when the query falls exactly on a
// valid sample row or column.
type GridInterpolator struct {
	ys   []float64
	rows []rowPredictor
}

// NewGridInterpolator fits the per-row interpolants for t.
func NewGridInterpolator(t *Tile) (*GridInterpolator, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	nRows, nCols := t.Surface.Dims()
	gi := &GridInterpolator{
		ys:   append([]float64(nil), t.Y...),
		rows: make([]rowPredictor, nRows),
	}
	for j := 0; j < nRows; j++ {
		row := mat.Row(nil, j, t.Surface)
		if nCols == 1 {
			gi.rows[j] = constRow(row[0])
			continue
		}
		pl := &interp.PiecewiseLinear{}
		if err := pl.Fit(t.X, row); err != nil {
			return nil, fmt.Errorf("failed to fit surface row %d: %w", j, err)
		}
		gi.rows[j] = pl
	}
	return gi, nil
}

// At interpolates the ground height at (x, y).
func (g *GridInterpolator) At(x, y float64) float64 {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN()
	}
	n := len(g.ys)
	if n == 1 || y <= g.ys[0] {
		return g.rows[0].Predict(x)
	}
	if y >= g.ys[n-1] {
		return g.rows[n-1].Predict(x)
	}

	// ys[j-1] < y <= ys[j]
	j := sort.SearchFloat64s(g.ys, y)
	if y == g.ys[j] {
		return g.rows[j].Predict(x)
	}
	t := (y - g.ys[j-1]) / (g.ys[j] - g.ys[j-1])
	lo := g.rows[j-1].Predict(x)
	hi := g.rows[j].Predict(x)
	return lo + (hi-lo)*t
}

// Evaluate implements Interpolator.
func (g *GridInterpolator) Evaluate(xy [][2]float64) ([]float64, error) {
	out := make([]float64, len(xy))
	for k, q := range xy {
		out[k] = g.At(q[0], q[1])
	}
	return out, nil
}

// Verify at compile time that *GridInterpolator implements Interpolator.
var _ Interpolator = (*GridInterpolator)(nil)
