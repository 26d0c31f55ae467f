package l2frames

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadASC parses a CloudCompare-style ASCII cloud: one point per line with
// at least three whitespace separated columns (X Y Z). Extra columns are
// ignored. Blank lines and lines starting with '#' are skipped.
func ReadASC(r io.Reader) ([]Point, error) {
	var points []Point
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected at least 3 columns, got %d", lineNo, len(fields))
		}
		var xyz [3]float64
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(fields[k], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: failed to parse column %d: %w", lineNo, k+1, err)
			}
			xyz[k] = v
		}
		points = append(points, Point{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read points: %w", err)
	}
	return points, nil
}

// WriteASC writes points with one extra integer column per point (typically
// the assigned label). extra may be nil, in which case only X Y Z is written.
func WriteASC(w io.Writer, points []Point, extra []int, extraHeader string) error {
	if extra != nil && len(extra) != len(points) {
		return fmt.Errorf("extra column has %d values for %d points", len(extra), len(points))
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Exported points\n")
	fmt.Fprintf(bw, "# Format: X Y Z%s\n", extraHeader)
	for i, p := range points {
		fmt.Fprintf(bw, "%.6f %.6f %.6f", p.X, p.Y, p.Z)
		if extra != nil {
			fmt.Fprintf(bw, " %d", extra[i])
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}
