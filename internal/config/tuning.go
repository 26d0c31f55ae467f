package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// MaxOctreeLevel is the deepest octree level the connected-component
// labeller can address (three 21-bit cell coordinates packed into 64 bits).
const MaxOctreeLevel = 21

// TuningConfig represents the root configuration for the labelling
// processors. Fields are pointers so that partial files can be detected:
// anything omitted falls back to the Get* defaults.
type TuningConfig struct {
	// Noise filter params
	NoiseEpsilon          *float64 `json:"noise_epsilon,omitempty"`
	NoiseOctreeLevel      *int     `json:"noise_octree_level,omitempty"`
	NoiseMinComponentSize *int     `json:"noise_min_component_size,omitempty"`

	// Ground fuser params
	GroundEpsilon *float64 `json:"ground_epsilon,omitempty"`

	// Elevation tile params
	TileCacheSize *int     `json:"tile_cache_size,omitempty"`
	TileSizeM     *float64 `json:"tile_size_m,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	empty := EmptyTuningConfig()
	return &TuningConfig{
		NoiseEpsilon:          ptrFloat64(empty.GetNoiseEpsilon()),
		NoiseOctreeLevel:      ptrInt(empty.GetNoiseOctreeLevel()),
		NoiseMinComponentSize: ptrInt(empty.GetNoiseMinComponentSize()),
		GroundEpsilon:         ptrFloat64(empty.GetGroundEpsilon()),
		TileCacheSize:         ptrInt(empty.GetTileCacheSize()),
		TileSizeM:             ptrFloat64(empty.GetTileSizeM()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/, cmd/noisefilter/
		"../../../" + DefaultConfigPath,    // from internal/lidar/l6objects/
		"../../../../" + DefaultConfigPath, // from internal/lidar/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.NoiseEpsilon != nil {
		if math.IsNaN(*c.NoiseEpsilon) || *c.NoiseEpsilon < 0 {
			return fmt.Errorf("noise_epsilon must be non-negative, got %f", *c.NoiseEpsilon)
		}
	}

	if c.NoiseOctreeLevel != nil {
		if *c.NoiseOctreeLevel <= 0 || *c.NoiseOctreeLevel > MaxOctreeLevel {
			return fmt.Errorf("noise_octree_level must be between 1 and %d, got %d", MaxOctreeLevel, *c.NoiseOctreeLevel)
		}
	}

	if c.NoiseMinComponentSize != nil {
		if *c.NoiseMinComponentSize <= 0 {
			return fmt.Errorf("noise_min_component_size must be positive, got %d", *c.NoiseMinComponentSize)
		}
	}

	if c.GroundEpsilon != nil {
		if math.IsNaN(*c.GroundEpsilon) || *c.GroundEpsilon < 0 {
			return fmt.Errorf("ground_epsilon must be non-negative, got %f", *c.GroundEpsilon)
		}
	}

	if c.TileCacheSize != nil {
		if *c.TileCacheSize <= 0 {
			return fmt.Errorf("tile_cache_size must be positive, got %d", *c.TileCacheSize)
		}
	}

	if c.TileSizeM != nil {
		if !(*c.TileSizeM > 0) {
			return fmt.Errorf("tile_size_m must be positive, got %f", *c.TileSizeM)
		}
	}

	return nil
}

// GetNoiseEpsilon returns the noise_epsilon value or the default.
// Points more than this far below the ground surface are noise.
func (c *TuningConfig) GetNoiseEpsilon() float64 {
	if c.NoiseEpsilon == nil {
		return 0.2 // default
	}
	return *c.NoiseEpsilon
}

// GetNoiseOctreeLevel returns the noise_octree_level value or the default.
func (c *TuningConfig) GetNoiseOctreeLevel() int {
	if c.NoiseOctreeLevel == nil {
		return 9 // default
	}
	return *c.NoiseOctreeLevel
}

// GetNoiseMinComponentSize returns the noise_min_component_size value or the default.
func (c *TuningConfig) GetNoiseMinComponentSize() int {
	if c.NoiseMinComponentSize == nil {
		return 100 // default
	}
	return *c.NoiseMinComponentSize
}

// GetGroundEpsilon returns the ground_epsilon value or the default.
func (c *TuningConfig) GetGroundEpsilon() float64 {
	if c.GroundEpsilon == nil {
		return 0.2
	}
	return *c.GroundEpsilon
}

// GetTileCacheSize returns the tile_cache_size value or the default.
func (c *TuningConfig) GetTileCacheSize() int {
	if c.TileCacheSize == nil {
		return 16
	}
	return *c.TileCacheSize
}

// GetTileSizeM returns the tile_size_m value or the default.
func (c *TuningConfig) GetTileSizeM() float64 {
	if c.TileSizeM == nil {
		return 50.0
	}
	return *c.TileSizeM
}
