package l4perception

import (
	"errors"
	"math"
	"testing"

	"github.com/banshee-data/pointcloud.labeler/internal/config"
	"github.com/banshee-data/pointcloud.labeler/internal/lidar/l2frames"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponents_TwoSeparateGroups(t *testing.T) {
	points := []l2frames.Point{
		{X: 0, Y: 0, Z: 0},
		{X: 10, Y: 0, Z: 0},
		{X: 0.1, Y: 0, Z: 0},
		{X: 9.9, Y: 0.1, Z: 0},
	}

	// side=10, level 3 -> 8 cells of 1.25 m per axis
	ids, err := NewConnectedComponents(3).Components(points)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 0, 1}, ids)
}

func TestComponents_AdjacentCellsChain(t *testing.T) {
	// Each point sits in the cell next to the previous one, so the chain
	// forms a single component even though the ends are far apart.
	var points []l2frames.Point
	for i := 0; i < 8; i++ {
		points = append(points, l2frames.Point{X: float64(i) * 1.25, Y: 0, Z: 0})
	}
	points = append(points, l2frames.Point{X: 8.75, Y: 0, Z: 0})

	ids, err := NewConnectedComponents(3).Components(points)
	require.NoError(t, err)

	for i, id := range ids {
		assert.Equalf(t, 0, id, "point %d", i)
	}
}

func TestComponents_DiagonalNeighbour(t *testing.T) {
	points := []l2frames.Point{
		{X: 0, Y: 0, Z: 0},
		{X: 1.3, Y: 1.3, Z: 1.3}, // cell (1,1,1): diagonal neighbour of (0,0,0)
		{X: 10, Y: 10, Z: 10},
	}

	ids, err := NewConnectedComponents(3).Components(points)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1}, ids)
}

func TestComponents_Coincident(t *testing.T) {
	points := []l2frames.Point{{X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}}

	ids, err := NewConnectedComponents(DefaultOctreeLevel).Components(points)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, ids)
}

func TestComponents_Empty(t *testing.T) {
	ids, err := NewConnectedComponents(DefaultOctreeLevel).Components(nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestComponents_InvalidLevel(t *testing.T) {
	for _, level := range []int{0, -1, MaxOctreeLevel + 1} {
		_, err := NewConnectedComponents(level).Components([]l2frames.Point{{}})
		if !errors.Is(err, ErrInvalidOctreeLevel) {
			t.Errorf("level %d: expected ErrInvalidOctreeLevel, got %v", level, err)
		}
	}
}

func TestComponents_LevelBoundsMatchTuning(t *testing.T) {
	points := []l2frames.Point{{X: 0}, {X: 1}}

	top := MaxOctreeLevel
	require.NoError(t, (&config.TuningConfig{NoiseOctreeLevel: &top}).Validate())
	_, err := NewConnectedComponents(top).Components(points)
	require.NoError(t, err)

	over := MaxOctreeLevel + 1
	assert.Error(t, (&config.TuningConfig{NoiseOctreeLevel: &over}).Validate())
	_, err = NewConnectedComponents(over).Components(points)
	assert.ErrorIs(t, err, ErrInvalidOctreeLevel)
}

func TestComponents_NonFinitePoint(t *testing.T) {
	base := []l2frames.Point{{X: 0}, {X: 100}, {X: 200}}

	ids, err := NewConnectedComponents(3).Components(base)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, ids)

	for name, bad := range map[string]l2frames.Point{
		"NaN":   {X: math.NaN(), Y: math.NaN(), Z: math.NaN()},
		"NaN z": {X: 50, Y: 0, Z: math.NaN()},
		"+Inf":  {X: math.Inf(1)},
		"-Inf":  {Y: math.Inf(-1)},
	} {
		t.Run(name, func(t *testing.T) {
			points := append(append([]l2frames.Point(nil), base...), bad)
			ids, err := NewConnectedComponents(3).Components(points)
			assert.ErrorIs(t, err, ErrNonFinitePoint)
			assert.Nil(t, ids)
		})
	}
}

func TestComponents_Deterministic(t *testing.T) {
	var points []l2frames.Point
	for i := 0; i < 200; i++ {
		points = append(points, l2frames.Point{
			X: float64(i%17) * 0.7,
			Y: float64(i%5) * 3.1,
			Z: float64(i%3) * 0.2,
		})
	}

	cc := NewConnectedComponents(6)
	first, err := cc.Components(points)
	require.NoError(t, err)
	second, err := cc.Components(points)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, len(points))
}

func TestComponentSizes(t *testing.T) {
	sizes := ComponentSizes([]int{3, 1, 3, 3, 7})
	assert.Equal(t, map[int]int{3: 3, 1: 1, 7: 1}, sizes)
}

func TestSmallComponents_StrictBoundary(t *testing.T) {
	const minSize = 4

	ids := make([]int, 0, 7)
	for i := 0; i < minSize; i++ {
		ids = append(ids, 10) // exactly minSize members: not small
	}
	for i := 0; i < minSize-1; i++ {
		ids = append(ids, 20) // minSize-1 members: small
	}

	small := SmallComponents(ids, minSize)
	for j, id := range ids {
		want := id == 20
		assert.Equalf(t, want, small[j], "point %d (component %d)", j, id)
	}
}
