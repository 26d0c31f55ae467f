// Package l6objects owns Layer 6 (Objects) of the LiDAR data model.
//
// Responsibilities: per-point classification. Each Classifier inspects a
// masked subset of a cloud and returns the points that carry its label;
// Pipeline runs classifiers in sequence to label a whole tile.
// Key types: Label, Classifier, NoiseFilter, GroundFuser, Pipeline.
//
// Dependency rule: L6 may depend on L1-L5.
// No SQL/database code is allowed in this package.
package l6objects
