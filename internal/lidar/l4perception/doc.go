// Package l4perception owns Layer 4 (Perception) of the LiDAR data model.
//
// Responsibilities: spatial segmentation of point clouds into connected
// components at a fixed octree resolution.
// Key types: ConnectedComponents.
//
// Dependency rule: L4 may depend on L1-L3, but never on L5+.
// No SQL/database code is allowed in this package.
package l4perception
