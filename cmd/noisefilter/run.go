package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/pointcloud.labeler/internal/config"
	"github.com/banshee-data/pointcloud.labeler/internal/fsutil"
	"github.com/banshee-data/pointcloud.labeler/internal/lidar/l2frames"
	"github.com/banshee-data/pointcloud.labeler/internal/lidar/l3grid"
	"github.com/banshee-data/pointcloud.labeler/internal/lidar/l6objects"
	"github.com/banshee-data/pointcloud.labeler/internal/lidar/monitor"
	"github.com/banshee-data/pointcloud.labeler/internal/lidar/storage/sqlite"
	"github.com/banshee-data/pointcloud.labeler/internal/security"
)

type options struct {
	configPath string
	dbPath     string
	tileCode   string
	importGrid string
	outDir     string
	plotDir    string
	ground     bool
	jobs       int
	inputs     []string
	tuning     *config.TuningConfig
	fs         fsutil.FileSystem
}

// loadTuning loads the tuning config at path. With no path it reads
// config.DefaultConfigPath relative to the working directory when present and
// otherwise uses the built-in defaults.
func loadTuning(path string) (*config.TuningConfig, error) {
	if path != "" {
		return config.LoadTuningConfig(path)
	}
	if _, err := os.Stat(config.DefaultConfigPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.DefaultTuningConfig(), nil
		}
		return nil, err
	}
	return config.LoadTuningConfig(config.DefaultConfigPath)
}

// importGrid reads an ASC grid (x y z per node) and stores it as the
// elevation surface of tileCode.
func importGrid(ctx context.Context, fs fsutil.FileSystem, store *sqlite.TileStore, tileCode, path string) (*sqlite.TileInfo, error) {
	if tileCode == "" {
		return nil, fmt.Errorf("-tile is required with -import-grid")
	}
	nodes, err := readCloud(fs, path)
	if err != nil {
		return nil, err
	}
	xs := make([]float64, len(nodes))
	ys := make([]float64, len(nodes))
	zs := make([]float64, len(nodes))
	for i, p := range nodes {
		xs[i], ys[i], zs[i] = p.X, p.Y, p.Z
	}
	tile, err := l3grid.TileFromPoints(tileCode, xs, ys, zs)
	if err != nil {
		return nil, err
	}
	return store.PutTile(ctx, tile, path)
}

// buildPipeline assembles the classifiers for one run. The tile cache is
// shared by every classifier and every input file.
func buildPipeline(tiles l3grid.Accessor, opts options) (*l6objects.Pipeline, error) {
	var classifiers []l6objects.Classifier
	if opts.ground {
		g, err := l6objects.NewGroundFuser(l6objects.LabelGround, tiles, l6objects.GroundFuserConfigFromTuning(opts.tuning))
		if err != nil {
			return nil, err
		}
		classifiers = append(classifiers, g)
	}
	nf, err := l6objects.NewNoiseFilter(l6objects.LabelNoise, tiles, l6objects.NoiseFilterConfigFromTuning(opts.tuning))
	if err != nil {
		return nil, err
	}
	classifiers = append(classifiers, nf)
	return l6objects.NewPipeline(classifiers...), nil
}

// run labels every input file, processing up to opts.jobs files at once.
func run(ctx context.Context, src l3grid.Source, opts options) error {
	if opts.tileCode != "" && len(opts.inputs) > 1 {
		return fmt.Errorf("-tile may only be used with a single input file")
	}
	if err := opts.tuning.Validate(); err != nil {
		return err
	}

	cache := l3grid.NewTileCache(src, opts.tuning.GetTileCacheSize())
	pipeline, err := buildPipeline(cache, opts)
	if err != nil {
		return err
	}

	var plots *monitor.LabelPlotter
	if opts.plotDir != "" {
		plots = monitor.NewLabelPlotter(opts.fs, monitor.MakePlotOutputDir(opts.plotDir, opts.inputs[0]))
		if err := plots.Start(); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	if opts.jobs > 0 {
		g.SetLimit(opts.jobs)
	}
	for _, in := range opts.inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return labelFile(pipeline, plots, opts, in)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	stats := cache.Stats()
	log.Printf("tile cache: hits=%d misses=%d evictions=%d", stats.Hits, stats.Misses, stats.Evictions)
	return nil
}

// labelFile runs the pipeline over one ASC file and writes the labelled copy.
func labelFile(pipeline *l6objects.Pipeline, plots *monitor.LabelPlotter, opts options, in string) error {
	points, err := readCloud(opts.fs, in)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return fmt.Errorf("%s: no points", in)
	}

	tileCode := opts.tileCode
	if tileCode == "" {
		tileCode = l3grid.TileCodeForPoint(points[0].X, points[0].Y, opts.tuning.GetTileSizeM())
	}

	res, err := pipeline.Process(points, tileCode)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}

	out, err := outputPath(in, opts.outDir)
	if err != nil {
		return err
	}
	if err := writeLabelled(opts.fs, out, points, res.Labels); err != nil {
		return err
	}
	log.Printf("%s: tile=%s run=%s ground=%d noise=%d -> %s", in, tileCode, res.RunID,
		res.Counts[l6objects.LabelGround], res.Counts[l6objects.LabelNoise], out)

	if plots != nil {
		base := filepath.Base(in)
		name := strings.TrimSuffix(base, filepath.Ext(base)) + "_" + tileCode
		if _, err := plots.Plot(name, points, res.Labels); err != nil {
			return fmt.Errorf("%s: plot: %w", in, err)
		}
	}
	return nil
}

func readCloud(fs fsutil.FileSystem, path string) ([]l2frames.Point, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	points, err := l2frames.ReadASC(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return points, nil
}

// outputPath maps cloud.asc to cloud.labelled.asc, in outDir when set.
func outputPath(in, outDir string) (string, error) {
	base := filepath.Base(in)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".labelled.asc"
	if outDir == "" {
		return filepath.Join(filepath.Dir(in), name), nil
	}
	out := filepath.Join(outDir, name)
	if err := security.WithinDirectory(out, outDir); err != nil {
		return "", err
	}
	return out, nil
}

func writeLabelled(fs fsutil.FileSystem, path string, points []l2frames.Point, labels []l6objects.Label) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	extra := make([]int, len(labels))
	for i, l := range labels {
		extra[i] = int(l)
	}
	if err := l2frames.WriteASC(f, points, extra, " Label"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
