package l2frames

import "math"

// Point is a cartesian point in the tile's projected coordinate system
// (metres).
type Point struct {
	X, Y, Z float64
}

// XY returns the planimetric coordinates of the point.
func (p Point) XY() [2]float64 {
	return [2]float64{p.X, p.Y}
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// BoundsOf computes the bounding box of points. The zero Bounds is returned
// for an empty slice.
func BoundsOf(points []Point) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	b := Bounds{
		MinX: math.Inf(1), MinY: math.Inf(1), MinZ: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1), MaxZ: math.Inf(-1),
	}
	for _, p := range points {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MinZ = math.Min(b.MinZ, p.Z)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
		b.MaxZ = math.Max(b.MaxZ, p.Z)
	}
	return b
}

// Mask is a boolean selection aligned with a point cloud.
type Mask []bool

// NewMask returns an all-false mask of length n.
func NewMask(n int) Mask {
	return make(Mask, n)
}

// FullMask returns an all-true mask of length n.
func FullMask(n int) Mask {
	m := make(Mask, n)
	for i := range m {
		m[i] = true
	}
	return m
}

// Count returns the number of selected entries.
func (m Mask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Indices returns the positions of the selected entries in ascending order.
func (m Mask) Indices() []int {
	idx := make([]int, 0, m.Count())
	for i, v := range m {
		if v {
			idx = append(idx, i)
		}
	}
	return idx
}

// Subset reports whether every entry selected by m is also selected by other.
// Masks of different length are never subsets.
func (m Mask) Subset(other Mask) bool {
	if len(m) != len(other) {
		return false
	}
	for i, v := range m {
		if v && !other[i] {
			return false
		}
	}
	return true
}

// Select returns the ordered subsequence of points picked by indices.
func Select(points []Point, indices []int) []Point {
	out := make([]Point, len(indices))
	for j, i := range indices {
		out[j] = points[i]
	}
	return out
}

// Scatter builds a length-n mask with values[j] placed at indices[j] and all
// other entries false. It is the inverse of Select.
func Scatter(n int, indices []int, values []bool) Mask {
	out := NewMask(n)
	for j, i := range indices {
		out[i] = values[j]
	}
	return out
}
