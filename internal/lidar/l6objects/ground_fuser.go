package l6objects

import (
	"fmt"
	"math"

	"github.com/banshee-data/pointcloud.labeler/internal/config"
	"github.com/banshee-data/pointcloud.labeler/internal/lidar/l2frames"
	"github.com/banshee-data/pointcloud.labeler/internal/lidar/l3grid"
	"github.com/banshee-data/pointcloud.labeler/internal/monitoring"
)

// GroundFuserConfig holds the tuning parameters of a GroundFuser.
type GroundFuserConfig struct {
	Epsilon float64 // Maximum distance in metres from the ground surface (default: 0.2)
}

// DefaultGroundFuserConfig returns the built-in ground fuser defaults.
func DefaultGroundFuserConfig() GroundFuserConfig {
	return GroundFuserConfigFromTuning(config.EmptyTuningConfig())
}

// GroundFuserConfigFromTuning builds a GroundFuserConfig from a loaded
// TuningConfig.
func GroundFuserConfigFromTuning(cfg *config.TuningConfig) GroundFuserConfig {
	return GroundFuserConfig{Epsilon: cfg.GetGroundEpsilon()}
}

// GroundFuser labels points lying within Epsilon of the interpolated ground
// surface. It normally runs before NoiseFilter so that ground returns are
// not considered for clustering.
type GroundFuser struct {
	label           Label
	cfg             GroundFuserConfig
	tiles           l3grid.Accessor
	newInterpolator l3grid.InterpolatorFactory
	logf            func(format string, v ...interface{})
}

// NewGroundFuser creates a ground fuser backed by bilinear grid
// interpolation.
func NewGroundFuser(label Label, tiles l3grid.Accessor, cfg GroundFuserConfig) (*GroundFuser, error) {
	return NewGroundFuserDI(label, tiles, cfg, l3grid.DefaultInterpolatorFactory)
}

// NewGroundFuserDI creates a ground fuser with an injected interpolator
// factory.
func NewGroundFuserDI(label Label, tiles l3grid.Accessor, cfg GroundFuserConfig,
	newInterpolator l3grid.InterpolatorFactory) (*GroundFuser, error) {

	if math.IsNaN(cfg.Epsilon) || cfg.Epsilon < 0 {
		return nil, fmt.Errorf("%w: epsilon must be non-negative, got %v", ErrConfiguration, cfg.Epsilon)
	}
	if tiles == nil || newInterpolator == nil {
		return nil, fmt.Errorf("%w: nil collaborator", ErrConfiguration)
	}
	return &GroundFuser{
		label:           label,
		cfg:             cfg,
		tiles:           tiles,
		newInterpolator: newInterpolator,
		logf:            monitoring.Component("GroundFuser"),
	}, nil
}

// Label implements Classifier.
func (g *GroundFuser) Label() Label {
	return g.label
}

// Classify implements Classifier. Points whose ground height is NaN are
// never labelled.
func (g *GroundFuser) Classify(points []l2frames.Point, existing []Label, mask l2frames.Mask, tileCode string) (l2frames.Mask, error) {
	if err := checkShapes(len(points), len(existing), len(mask)); err != nil {
		return nil, err
	}

	idx := mask.Indices()
	if len(idx) == 0 {
		return l2frames.NewMask(len(points)), nil
	}
	subset := l2frames.Select(points, idx)

	targetZ, err := groundHeights(g.tiles, g.newInterpolator, tileCode, subset)
	if err != nil {
		return nil, err
	}

	ground := make([]bool, len(subset))
	flagged := 0
	for j, p := range subset {
		ground[j] = math.Abs(p.Z-targetZ[j]) < g.cfg.Epsilon
		if ground[j] {
			flagged++
		}
	}

	g.logf("processed label=%d (%s) tile=%s flagged=%d/%d", int(g.label), g.label, tileCode, flagged, len(subset))
	return l2frames.Scatter(len(points), idx, ground), nil
}

var _ Classifier = (*GroundFuser)(nil)
