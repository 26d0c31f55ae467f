// Package sqlite contains SQLite repository implementations for LiDAR
// domain types.
//
// All database read/write operations for elevation tiles belong here rather
// than in the domain layer packages (L3-L6). This keeps domain logic free of
// SQL noise and makes it easier to swap storage backends for testing.
//
// The schema is versioned with golang-migrate; migrations are embedded from
// the migrations directory and applied when a store is opened.
package sqlite
