package l6objects

import (
	"errors"
	"fmt"

	"github.com/banshee-data/pointcloud.labeler/internal/lidar/l2frames"
	"github.com/banshee-data/pointcloud.labeler/internal/lidar/l3grid"
)

// ErrConfiguration is returned when a classifier is constructed with invalid
// parameters.
var ErrConfiguration = errors.New("invalid classifier configuration")

// ErrShapeMismatch is returned when the point, label and mask slices handed
// to a classifier (or produced by one of its collaborators) disagree in length.
var ErrShapeMismatch = errors.New("input shape mismatch")

// Classifier labels a masked subset of a point cloud.
//
// Classify returns a mask over the full cloud marking the points that should
// receive the classifier's label. Returned masks never select a point outside
// mask. existing carries the labels assigned so far; classifiers may ignore it.
type Classifier interface {
	Label() Label
	Classify(points []l2frames.Point, existing []Label, mask l2frames.Mask, tileCode string) (l2frames.Mask, error)
}

// ComponentLabeler partitions points into spatially connected components and
// returns one component identifier per point, in input order.
// l4perception.ConnectedComponents is the production implementation.
type ComponentLabeler interface {
	Components(points []l2frames.Point) ([]int, error)
}

// checkShapes verifies that the per-point inputs are aligned.
func checkShapes(points int, existing int, mask int) error {
	if existing != points || mask != points {
		return fmt.Errorf("%w: %d points, %d labels, %d mask entries", ErrShapeMismatch, points, existing, mask)
	}
	return nil
}

// groundHeights fetches the tile for tileCode and interpolates the ground
// height under every point of subset. Accessor and interpolator errors are
// returned unchanged.
func groundHeights(tiles l3grid.Accessor, newInterpolator l3grid.InterpolatorFactory,
	tileCode string, subset []l2frames.Point) ([]float64, error) {

	tile, err := tiles.Tile(tileCode)
	if err != nil {
		return nil, err
	}
	interp, err := newInterpolator(tile)
	if err != nil {
		return nil, err
	}

	xy := make([][2]float64, len(subset))
	for j, p := range subset {
		xy[j] = p.XY()
	}
	targetZ, err := interp.Evaluate(xy)
	if err != nil {
		return nil, err
	}
	if len(targetZ) != len(subset) {
		return nil, fmt.Errorf("%w: interpolator returned %d heights for %d points", ErrShapeMismatch, len(targetZ), len(subset))
	}
	return targetZ, nil
}
