// Package l2frames owns Layer 2 (Frames) of the LiDAR data model.
//
// Responsibilities: the point cloud representation handed to the labelling
// processors, the selection masks aligned with it, and frame-level ASCII
// import/export.
// Key types: Point, Mask, Bounds.
//
// A cloud is an ordered slice of points. Order is significant: every mask and
// label slice is positionally aligned with the cloud it describes.
//
// Dependency rule: L2 may depend on L1, but never on L3+.
package l2frames
