package l2frames

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskCountAndIndices(t *testing.T) {
	m := Mask{true, false, true, true, false}

	assert.Equal(t, 3, m.Count())
	assert.Equal(t, []int{0, 2, 3}, m.Indices())
	assert.Equal(t, 0, NewMask(4).Count())
	assert.Equal(t, 4, FullMask(4).Count())
}

func TestMaskSubset(t *testing.T) {
	outer := Mask{true, true, false}

	assert.True(t, Mask{true, false, false}.Subset(outer))
	assert.False(t, Mask{false, false, true}.Subset(outer))
	assert.False(t, Mask{true}.Subset(outer))
}

func TestSelectScatterRoundTrip(t *testing.T) {
	points := []Point{{X: 0}, {X: 1}, {X: 2}, {X: 3}}
	mask := Mask{false, true, false, true}
	idx := mask.Indices()

	subset := Select(points, idx)
	if diff := cmp.Diff([]Point{{X: 1}, {X: 3}}, subset); diff != "" {
		t.Errorf("Select mismatch (-want +got):\n%s", diff)
	}

	out := Scatter(len(points), idx, []bool{true, false})
	if diff := cmp.Diff(Mask{false, true, false, false}, out); diff != "" {
		t.Errorf("Scatter mismatch (-want +got):\n%s", diff)
	}
}

func TestBoundsOf(t *testing.T) {
	b := BoundsOf([]Point{{X: 1, Y: -2, Z: 3}, {X: -1, Y: 4, Z: 0}})
	assert.Equal(t, Bounds{MinX: -1, MinY: -2, MinZ: 0, MaxX: 1, MaxY: 4, MaxZ: 3}, b)
	assert.Equal(t, Bounds{}, BoundsOf(nil))
}

func TestReadASC(t *testing.T) {
	input := `# header
1.0 2.0 3.0 100

4.5 5.5 6.5
`
	points, err := ReadASC(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []Point{{X: 1, Y: 2, Z: 3}, {X: 4.5, Y: 5.5, Z: 6.5}}, points)
}

func TestReadASC_Errors(t *testing.T) {
	_, err := ReadASC(strings.NewReader("1.0 2.0\n"))
	assert.ErrorContains(t, err, "line 1")

	_, err = ReadASC(strings.NewReader("1.0 abc 3.0\n"))
	assert.ErrorContains(t, err, "column 2")
}

func TestWriteASC(t *testing.T) {
	var buf bytes.Buffer
	points := []Point{{X: 1, Y: 2, Z: 3}}

	require.NoError(t, WriteASC(&buf, points, []int{99}, " Label"))
	assert.Contains(t, buf.String(), "# Format: X Y Z Label")
	assert.Contains(t, buf.String(), "1.000000 2.000000 3.000000 99")

	// written output parses back
	back, err := ReadASC(&buf)
	require.NoError(t, err)
	assert.Equal(t, points, back)

	assert.Error(t, WriteASC(&buf, points, []int{1, 2}, ""))
}
