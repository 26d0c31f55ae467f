package l4perception

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/pointcloud.labeler/internal/config"
	"github.com/banshee-data/pointcloud.labeler/internal/lidar/l2frames"
)

// MaxOctreeLevel is the deepest supported octree level. Three cell coordinates of
// MaxOctreeLevel bits each are packed into a single uint64 cell key.
const MaxOctreeLevel = config.MaxOctreeLevel

// DefaultOctreeLevel is the octree level used when none is configured.
const DefaultOctreeLevel = 9

// minCubeSide avoids a zero cell size when all points coincide.
const minCubeSide = 1e-9

// ErrInvalidOctreeLevel is returned when an octree level is outside [1, MaxOctreeLevel].
var ErrInvalidOctreeLevel = errors.New("invalid octree level")

// ErrNonFinitePoint is returned when a point has a NaN or infinite coordinate.
// Such a point would poison the bounding cube and merge every cell.
var ErrNonFinitePoint = errors.New("non-finite point")

// neighbourOffsets lists the 26 cell offsets around a cell.
var neighbourOffsets [][3]int64

func init() {
	for _, x := range []int64{-1, 0, 1} {
		for _, y := range []int64{-1, 0, 1} {
			for _, z := range []int64{-1, 0, 1} {
				if x == 0 && y == 0 && z == 0 {
					continue
				}
				neighbourOffsets = append(neighbourOffsets, [3]int64{x, y, z})
			}
		}
	}
}

// ConnectedComponents assigns a component identifier to every point of a
// cloud. It divides the bounding cube of the input into a regular octree grid
// at the configured level and joins points whose cells touch
// (26-neighbourhood). The zero value is not usable; construct with
// NewConnectedComponents.
type ConnectedComponents struct {
	level int
}

// NewConnectedComponents creates a labeller working at the given octree level.
// Level is validated lazily by Components so that construction never fails.
func NewConnectedComponents(level int) *ConnectedComponents {
	return &ConnectedComponents{level: level}
}

// Level returns the configured octree level.
func (c *ConnectedComponents) Level() int {
	return c.level
}

// Components returns one identifier per input point, in input order.
// Identifiers are dense, starting at 0, and numbered in order of each
// component's first member, so identical inputs always produce identical
// output.
func (c *ConnectedComponents) Components(points []l2frames.Point) ([]int, error) {
	if c.level < 1 || c.level > MaxOctreeLevel {
		return nil, fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidOctreeLevel, c.level, MaxOctreeLevel)
	}
	if len(points) == 0 {
		return []int{}, nil
	}
	for i, p := range points {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return nil, fmt.Errorf("%w: index %d (%v, %v, %v)", ErrNonFinitePoint, i, p.X, p.Y, p.Z)
		}
	}

	g := newOctreeGrid(points, c.level)

	ids := make([]int, len(points))
	cellComponent := make(map[uint64]int, len(g.cells))
	next := 0
	queue := make([][3]int64, 0, 64)

	for i := range points {
		key := g.keys[i]
		if id, ok := cellComponent[key]; ok {
			ids[i] = id
			continue
		}

		// BFS over occupied cells reachable from this point's cell.
		id := next
		next++
		cellComponent[key] = id
		queue = append(queue[:0], g.coords[i])
		for len(queue) > 0 {
			cur := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			for _, d := range neighbourOffsets {
				n := [3]int64{cur[0] + d[0], cur[1] + d[1], cur[2] + d[2]}
				if !g.inRange(n) {
					continue
				}
				nk := packKey(n)
				if _, occupied := g.cells[nk]; !occupied {
					continue
				}
				if _, seen := cellComponent[nk]; seen {
					continue
				}
				cellComponent[nk] = id
				queue = append(queue, n)
			}
		}
		ids[i] = id
	}

	return ids, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// octreeGrid is the set of occupied leaf cells at a given octree level.
type octreeGrid struct {
	perAxis int64
	cells   map[uint64]struct{}
	keys    []uint64   // cell key per point
	coords  [][3]int64 // cell coordinates per point
}

func newOctreeGrid(points []l2frames.Point, level int) *octreeGrid {
	b := l2frames.BoundsOf(points)
	side := math.Max(b.MaxX-b.MinX, math.Max(b.MaxY-b.MinY, b.MaxZ-b.MinZ))
	if side < minCubeSide {
		side = minCubeSide
	}
	perAxis := int64(1) << uint(level)
	cellSize := side / float64(perAxis)

	g := &octreeGrid{
		perAxis: perAxis,
		cells:   make(map[uint64]struct{}),
		keys:    make([]uint64, len(points)),
		coords:  make([][3]int64, len(points)),
	}
	for i, p := range points {
		c := [3]int64{
			g.clamp(int64(math.Floor((p.X - b.MinX) / cellSize))),
			g.clamp(int64(math.Floor((p.Y - b.MinY) / cellSize))),
			g.clamp(int64(math.Floor((p.Z - b.MinZ) / cellSize))),
		}
		k := packKey(c)
		g.coords[i] = c
		g.keys[i] = k
		g.cells[k] = struct{}{}
	}
	return g
}

// clamp keeps points on the far faces of the cube inside the last cell.
func (g *octreeGrid) clamp(v int64) int64 {
	if v < 0 {
		return 0
	}
	if v >= g.perAxis {
		return g.perAxis - 1
	}
	return v
}

func (g *octreeGrid) inRange(c [3]int64) bool {
	for _, v := range c {
		if v < 0 || v >= g.perAxis {
			return false
		}
	}
	return true
}

func packKey(c [3]int64) uint64 {
	return uint64(c[0])<<(2*MaxOctreeLevel) | uint64(c[1])<<MaxOctreeLevel | uint64(c[2])
}

// ComponentSizes counts the members of each component.
func ComponentSizes(ids []int) map[int]int {
	sizes := make(map[int]int)
	for _, id := range ids {
		sizes[id]++
	}
	return sizes
}

// SmallComponents reports, per point, whether its component has strictly
// fewer than minSize members.
func SmallComponents(ids []int, minSize int) []bool {
	sizes := ComponentSizes(ids)
	small := make([]bool, len(ids))
	for j, id := range ids {
		small[j] = sizes[id] < minSize
	}
	return small
}
