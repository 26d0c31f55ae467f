package l3grid

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
)

// surfaceBlob is the gob-encoded form of a tile surface.
type surfaceBlob struct {
	X      []float64
	Y      []float64
	Values []float64 // row-major, len(Y) rows
}

// EncodeSurface compresses a tile's axes and surface using gob encoding and
// gzip compression.
func EncodeSurface(t *Tile) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(surfaceBlob{X: t.X, Y: t.Y, Values: t.Values()}); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSurface decompresses a blob produced by EncodeSurface into a tile
// with the given code.
func DecodeSurface(code string, blob []byte) (*Tile, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty surface blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var sb surfaceBlob
	if err := gob.NewDecoder(gz).Decode(&sb); err != nil {
		return nil, fmt.Errorf("failed to decode surface: %w", err)
	}
	return NewTile(code, sb.X, sb.Y, sb.Values)
}
