package l6objects

import (
	"fmt"

	"github.com/banshee-data/pointcloud.labeler/internal/lidar/l2frames"
	"github.com/banshee-data/pointcloud.labeler/internal/lidar/l3grid"
)

// stubLabeler assigns each point the component id returned by idOf.
type stubLabeler struct {
	idOf  func(p l2frames.Point) int
	err   error
	short bool // drop the last id to simulate a broken engine
	calls int
	seen  [][]l2frames.Point
}

func (s *stubLabeler) Components(points []l2frames.Point) ([]int, error) {
	s.calls++
	s.seen = append(s.seen, points)
	if s.err != nil {
		return nil, s.err
	}
	ids := make([]int, len(points))
	for j, p := range points {
		ids[j] = s.idOf(p)
	}
	if s.short && len(ids) > 0 {
		ids = ids[:len(ids)-1]
	}
	return ids, nil
}

// clusterByX puts points with the same integer X in the same component.
func clusterByX(p l2frames.Point) int { return int(p.X) }

// stubTiles serves a single empty tile and counts lookups.
type stubTiles struct {
	codes map[string]bool
	calls int
}

func newStubTiles(codes ...string) *stubTiles {
	s := &stubTiles{codes: make(map[string]bool)}
	for _, c := range codes {
		s.codes[c] = true
	}
	return s
}

func (s *stubTiles) Tile(code string) (*l3grid.Tile, error) {
	s.calls++
	if !s.codes[code] {
		return nil, fmt.Errorf("%w: %q", l3grid.ErrTileNotFound, code)
	}
	return &l3grid.Tile{Code: code}, nil
}

// interpFunc adapts a function to l3grid.Interpolator.
type interpFunc func(xy [][2]float64) ([]float64, error)

func (f interpFunc) Evaluate(xy [][2]float64) ([]float64, error) { return f(xy) }

// stubGround builds an interpolator factory returning height(x, y) and
// counting factory calls.
type stubGround struct {
	height func(x, y float64) float64
	err    error
	calls  int
}

func flatGround(z float64) *stubGround {
	return &stubGround{height: func(float64, float64) float64 { return z }}
}

func (g *stubGround) factory(*l3grid.Tile) (l3grid.Interpolator, error) {
	g.calls++
	return interpFunc(func(xy [][2]float64) ([]float64, error) {
		if g.err != nil {
			return nil, g.err
		}
		out := make([]float64, len(xy))
		for j, p := range xy {
			out[j] = g.height(p[0], p[1])
		}
		return out, nil
	}), nil
}
