package l6objects

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/pointcloud.labeler/internal/lidar/l2frames"
	"github.com/banshee-data/pointcloud.labeler/internal/monitoring"
	"github.com/banshee-data/pointcloud.labeler/internal/timeutil"
)

// Pipeline runs a fixed sequence of classifiers over a point cloud. Each
// classifier sees only the points still unlabelled when its turn comes, so
// earlier classifiers take precedence.
type Pipeline struct {
	classifiers []Classifier
	clock       timeutil.Clock
	logf        func(format string, v ...interface{})
}

// StageStats records the outcome of one classifier within a run.
type StageStats struct {
	Label      Label
	Considered int
	Labelled   int
	Duration   time.Duration
}

// PipelineResult is the output of a single Pipeline.Process call.
type PipelineResult struct {
	RunID     string
	TileCode  string
	StartedAt time.Time
	Elapsed   time.Duration
	Labels    []Label
	Stages    []StageStats
	Counts    map[Label]int
}

// NewPipeline creates a pipeline that applies classifiers in order.
func NewPipeline(classifiers ...Classifier) *Pipeline {
	return NewPipelineDI(timeutil.RealClock{}, classifiers...)
}

// NewPipelineDI creates a pipeline timed by clock.
func NewPipelineDI(clock timeutil.Clock, classifiers ...Classifier) *Pipeline {
	return &Pipeline{
		classifiers: classifiers,
		clock:       clock,
		logf:        monitoring.Component("Pipeline"),
	}
}

// Process labels points from tileCode. Every point starts as
// LabelUnlabelled. A classifier error aborts the run; the returned error
// wraps the classifier's error so errors.Is still matches it.
func (p *Pipeline) Process(points []l2frames.Point, tileCode string) (*PipelineResult, error) {
	res := &PipelineResult{
		RunID:     uuid.NewString(),
		TileCode:  tileCode,
		StartedAt: p.clock.Now(),
		Labels:    FillLabels(len(points), LabelUnlabelled),
		Stages:    make([]StageStats, 0, len(p.classifiers)),
	}

	for _, c := range p.classifiers {
		mask := make(l2frames.Mask, len(points))
		for i, l := range res.Labels {
			mask[i] = l == LabelUnlabelled
		}

		start := p.clock.Now()
		out, err := c.Classify(points, res.Labels, mask, tileCode)
		if err != nil {
			return nil, fmt.Errorf("run %s: classifier %s on tile %s: %w", res.RunID, c.Label(), tileCode, err)
		}
		if len(out) != len(points) {
			return nil, fmt.Errorf("run %s: classifier %s: %w: returned %d mask entries for %d points",
				res.RunID, c.Label(), ErrShapeMismatch, len(out), len(points))
		}
		if !out.Subset(mask) {
			return nil, fmt.Errorf("run %s: classifier %s selected points outside its mask", res.RunID, c.Label())
		}

		labelled := 0
		for i, sel := range out {
			if sel {
				res.Labels[i] = c.Label()
				labelled++
			}
		}
		res.Stages = append(res.Stages, StageStats{
			Label:      c.Label(),
			Considered: mask.Count(),
			Labelled:   labelled,
			Duration:   p.clock.Since(start),
		})
	}

	res.Counts = CountLabels(res.Labels)
	res.Elapsed = p.clock.Since(res.StartedAt)
	p.logf("run=%s tile=%s points=%d stages=%d unlabelled=%d elapsed=%s",
		res.RunID, tileCode, len(points), len(res.Stages), res.Counts[LabelUnlabelled], res.Elapsed)
	return res, nil
}
