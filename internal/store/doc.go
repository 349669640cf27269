// Package store provides hierarchical snapshot containers.
//
// A container holds a tree of named groups. Every group carries scalar
// attributes and flat numeric datasets, both typed as int or float arrays:
//   - Groups: addressed by slash-separated paths, the root is "/"
//   - Attributes: small arrays, stored uncompressed
//   - Datasets: arbitrary length arrays, stored little-endian and compressed
//     with the container's Codec
//
// # Backends
//
// SQLite (Open) keeps one snapshot per database file. Every Write replaces
// the previous contents inside a single transaction, so a failed write never
// leaves a half-written snapshot behind. Memory (NewMemory) keeps the tree
// in process and swaps it in on success the same way.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Every snapshot gets a fresh UUIDv7 id, so ids of successive snapshots sort
// by creation.
package store
