package monitor

import (
	"fmt"
	"image/color"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/pointcloud.labeler/internal/fsutil"
	"github.com/banshee-data/pointcloud.labeler/internal/lidar/l2frames"
	"github.com/banshee-data/pointcloud.labeler/internal/lidar/l6objects"
	"github.com/banshee-data/pointcloud.labeler/internal/security"
)

// LabelPlotter renders labelled point clouds to PNG files for visual
// inspection after a run: a top-down (X/Y) view and a side (X/Z) profile,
// one series per label.
type LabelPlotter struct {
	mu        sync.Mutex
	fs        fsutil.FileSystem
	outputDir string
	written   []string
}

// NewLabelPlotter creates a plotter that writes into outputDir on fs.
func NewLabelPlotter(fs fsutil.FileSystem, outputDir string) *LabelPlotter {
	return &LabelPlotter{fs: fs, outputDir: outputDir}
}

// Start creates the output directory.
func (lp *LabelPlotter) Start() error {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if lp.outputDir == "" {
		return fmt.Errorf("no output directory configured")
	}
	if err := lp.fs.MkdirAll(lp.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	return nil
}

// Plot writes the views for one labelled cloud and returns the files
// created. name identifies the cloud in titles and file names.
func (lp *LabelPlotter) Plot(name string, points []l2frames.Point, labels []l6objects.Label) ([]string, error) {
	if len(points) != len(labels) {
		return nil, fmt.Errorf("%w: %d points, %d labels", l6objects.ErrShapeMismatch, len(points), len(labels))
	}

	lp.mu.Lock()
	defer lp.mu.Unlock()

	if lp.outputDir == "" {
		return nil, fmt.Errorf("no output directory configured")
	}

	// Group point indices by label
	byLabel := make(map[l6objects.Label][]int)
	for i, l := range labels {
		byLabel[l] = append(byLabel[l], i)
	}
	var sorted []l6objects.Label
	for l := range byLabel {
		sorted = append(sorted, l)
	}
	sort.Slice(sorted, func(a, b int) bool { return sorted[a] < sorted[b] })

	views := []struct {
		suffix string
		yLabel string
		y      func(p l2frames.Point) float64
	}{
		{"xy", "Y (m)", func(p l2frames.Point) float64 { return p.Y }},
		{"xz", "Z (m)", func(p l2frames.Point) float64 { return p.Z }},
	}

	var files []string
	for _, v := range views {
		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s - %s labels", name, v.suffix)
		p.X.Label.Text = "X (m)"
		p.Y.Label.Text = v.yLabel

		for _, l := range sorted {
			idx := byLabel[l]
			pts := make(plotter.XYs, len(idx))
			for j, i := range idx {
				pts[j] = plotter.XY{X: points[i].X, Y: v.y(points[i])}
			}
			s, err := plotter.NewScatter(pts)
			if err != nil {
				return files, err
			}
			s.GlyphStyle.Color = labelColor(l)
			s.GlyphStyle.Radius = vg.Points(1)
			s.GlyphStyle.Shape = draw.CircleGlyph{}
			p.Add(s)
			p.Legend.Add(fmt.Sprintf("%s (%d)", l, len(idx)), s)
		}
		p.Legend.Top = true

		file := filepath.Join(lp.outputDir, fmt.Sprintf("%s_%s.png", security.SanitizeFilename(name), v.suffix))
		if err := lp.save(p, file); err != nil {
			return files, fmt.Errorf("failed to save %s: %w", file, err)
		}
		files = append(files, file)
	}

	lp.written = append(lp.written, files...)
	return files, nil
}

// save renders p as a PNG through the plotter's filesystem.
func (lp *LabelPlotter) save(p *plot.Plot, file string) error {
	wt, err := p.WriterTo(10*vg.Inch, 10*vg.Inch, "png")
	if err != nil {
		return err
	}
	w, err := lp.fs.Create(file)
	if err != nil {
		return err
	}
	if _, err := wt.WriteTo(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Written returns every file produced so far.
func (lp *LabelPlotter) Written() []string {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return append([]string(nil), lp.written...)
}

// labelPalette fixes colours for the well-known labels so plots are
// comparable across runs.
var labelPalette = map[l6objects.Label]color.Color{
	l6objects.LabelUnlabelled: color.RGBA{R: 160, G: 160, B: 160, A: 255},
	l6objects.LabelGround:     color.RGBA{R: 139, G: 90, B: 43, A: 255},
	l6objects.LabelNoise:      color.RGBA{R: 220, G: 20, B: 60, A: 255},
}

// labelColor returns the palette colour for l, falling back to a hue derived
// from the label value.
func labelColor(l l6objects.Label) color.Color {
	if c, ok := labelPalette[l]; ok {
		return c
	}
	palette := generateColors(12)
	i := int(l) % len(palette)
	if i < 0 {
		i += len(palette)
	}
	return palette[i]
}

// generateColors creates a palette of n distinct colours
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64
	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}
	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakePlotOutputDir returns a timestamped plot directory for an input file:
// plots/<input_basename>/<timestamp>, or plots/stdin_<timestamp> when the
// cloud was read from standard input.
func MakePlotOutputDir(baseDir, inputFile string) string {
	ts := FormatTimestamp(time.Now())
	if inputFile != "" && inputFile != "-" {
		base := filepath.Base(inputFile)
		ext := filepath.Ext(base)
		return filepath.Join(baseDir, base[:len(base)-len(ext)], ts)
	}
	return filepath.Join(baseDir, "stdin_"+ts)
}
