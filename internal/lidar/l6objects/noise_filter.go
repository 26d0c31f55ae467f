package l6objects

import (
	"fmt"
	"math"

	"github.com/banshee-data/pointcloud.labeler/internal/config"
	"github.com/banshee-data/pointcloud.labeler/internal/lidar/l2frames"
	"github.com/banshee-data/pointcloud.labeler/internal/lidar/l3grid"
	"github.com/banshee-data/pointcloud.labeler/internal/lidar/l4perception"
	"github.com/banshee-data/pointcloud.labeler/internal/monitoring"
)

// NoiseFilterConfig holds the tuning parameters of a NoiseFilter.
type NoiseFilterConfig struct {
	Epsilon          float64 // Metres below the ground surface tolerated before a point is noise (default: 0.2)
	OctreeLevel      int     // Octree level for connected-component clustering (default: 9)
	MinComponentSize int     // Components with fewer points are noise (default: 100)
}

// DefaultNoiseFilterConfig returns the built-in noise filter defaults.
func DefaultNoiseFilterConfig() NoiseFilterConfig {
	return NoiseFilterConfigFromTuning(config.EmptyTuningConfig())
}

// NoiseFilterConfigFromTuning builds a NoiseFilterConfig from a loaded
// TuningConfig.
func NoiseFilterConfigFromTuning(cfg *config.TuningConfig) NoiseFilterConfig {
	return NoiseFilterConfig{
		Epsilon:          cfg.GetNoiseEpsilon(),
		OctreeLevel:      cfg.GetNoiseOctreeLevel(),
		MinComponentSize: cfg.GetNoiseMinComponentSize(),
	}
}

// Validate checks the configuration, returning an error wrapping
// ErrConfiguration on failure.
func (c NoiseFilterConfig) Validate() error {
	if math.IsNaN(c.Epsilon) || c.Epsilon < 0 {
		return fmt.Errorf("%w: epsilon must be non-negative, got %v", ErrConfiguration, c.Epsilon)
	}
	if c.OctreeLevel <= 0 || c.OctreeLevel > l4perception.MaxOctreeLevel {
		return fmt.Errorf("%w: octree level must be in [1, %d], got %d", ErrConfiguration, l4perception.MaxOctreeLevel, c.OctreeLevel)
	}
	if c.MinComponentSize <= 0 {
		return fmt.Errorf("%w: min component size must be positive, got %d", ErrConfiguration, c.MinComponentSize)
	}
	return nil
}

// NoiseFilter labels points as noise when they belong to a small connected
// component or lie more than Epsilon below the interpolated ground surface.
// Either criterion alone is sufficient.
//
// A NoiseFilter holds no mutable state; Classify may be called concurrently
// provided the tile accessor supports concurrent reads.
type NoiseFilter struct {
	label           Label
	cfg             NoiseFilterConfig
	tiles           l3grid.Accessor
	labeler         ComponentLabeler
	newInterpolator l3grid.InterpolatorFactory
	logf            func(format string, v ...interface{})
}

// NewNoiseFilter creates a noise filter using the production collaborators:
// octree connected components and bilinear grid interpolation.
func NewNoiseFilter(label Label, tiles l3grid.Accessor, cfg NoiseFilterConfig) (*NoiseFilter, error) {
	return NewNoiseFilterDI(label, tiles, cfg, l4perception.NewConnectedComponents(cfg.OctreeLevel), l3grid.DefaultInterpolatorFactory)
}

// NewNoiseFilterDI creates a noise filter with injected collaborators.
// Used by tests to substitute fakes for the clustering and interpolation
// engines.
func NewNoiseFilterDI(label Label, tiles l3grid.Accessor, cfg NoiseFilterConfig,
	labeler ComponentLabeler, newInterpolator l3grid.InterpolatorFactory) (*NoiseFilter, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tiles == nil {
		return nil, fmt.Errorf("%w: nil tile accessor", ErrConfiguration)
	}
	if labeler == nil || newInterpolator == nil {
		return nil, fmt.Errorf("%w: nil collaborator", ErrConfiguration)
	}
	return &NoiseFilter{
		label:           label,
		cfg:             cfg,
		tiles:           tiles,
		labeler:         labeler,
		newInterpolator: newInterpolator,
		logf:            monitoring.Component("NoiseFilter"),
	}, nil
}

// Label implements Classifier.
func (f *NoiseFilter) Label() Label {
	return f.label
}

// Config returns the filter's configuration.
func (f *NoiseFilter) Config() NoiseFilterConfig {
	return f.cfg
}

// Classify implements Classifier. existing is not read.
//
// Only points selected by mask are considered. When mask selects nothing the
// result is all false and neither the component labeler nor the tile accessor
// is consulted. Collaborator errors are returned unchanged and no partial
// mask is ever returned.
func (f *NoiseFilter) Classify(points []l2frames.Point, existing []Label, mask l2frames.Mask, tileCode string) (l2frames.Mask, error) {
	if err := checkShapes(len(points), len(existing), len(mask)); err != nil {
		return nil, err
	}

	idx := mask.Indices()
	if len(idx) == 0 {
		f.logf("processed label=%d (%s) tile=%s flagged=0/0", int(f.label), f.label, tileCode)
		return l2frames.NewMask(len(points)), nil
	}
	subset := l2frames.Select(points, idx)

	components, err := f.labeler.Components(subset)
	if err != nil {
		return nil, err
	}
	if len(components) != len(subset) {
		return nil, fmt.Errorf("%w: component labeler returned %d ids for %d points", ErrShapeMismatch, len(components), len(subset))
	}
	small := l4perception.SmallComponents(components, f.cfg.MinComponentSize)

	targetZ, err := groundHeights(f.tiles, f.newInterpolator, tileCode, subset)
	if err != nil {
		return nil, err
	}

	noise := make([]bool, len(subset))
	flagged := 0
	for j, p := range subset {
		// NaN ground never compares below.
		belowGround := p.Z-targetZ[j] < -f.cfg.Epsilon
		noise[j] = small[j] || belowGround
		if noise[j] {
			flagged++
		}
	}

	f.logf("processed label=%d (%s) tile=%s flagged=%d/%d", int(f.label), f.label, tileCode, flagged, len(subset))
	return l2frames.Scatter(len(points), idx, noise), nil
}

// Verify at compile time that *NoiseFilter implements Classifier.
var _ Classifier = (*NoiseFilter)(nil)
