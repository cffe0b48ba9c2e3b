// Package repositories implements SQLite persistence for users and library snapshots.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [UserRepository] : User account persistence with username and email lookups
//   - [LibraryRepository] : Ordered library snapshots per user; also serves as the library store's persister
//
// Sequence numbers provide stable, human-readable ordering (e.g., user #42, entry #15) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
