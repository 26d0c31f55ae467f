// Package l3grid owns Layer 3 (Grid) of the LiDAR data model.
//
// Responsibilities: the reference ground surface grids (Tile), tile lookup by
// tile code (Accessor, Source, TileCache, MemoryStore), bilinear surface
// interpolation (GridInterpolator) and the compressed surface blob codec used
// for persistence.
// Key types: Tile, TileCache, GridInterpolator.
//
// Dependency rule: L3 may depend on L1-L2, but never on L4+.
// No SQL/database code is allowed in this package.
package l3grid
