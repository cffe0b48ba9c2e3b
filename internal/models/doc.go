// Package models defines the canonical track model and persistence interfaces for the mixtape music controller.
//
// The package contains two categories of types:
//
// 1. Value types: provider-agnostic data shared by every layer
//   - [ProviderKind] : Closed set of provider tags deciding playback mechanism and URL meaning
//   - [Track] : Immutable canonical track, built with [NewTrack] or [Normalize]
//   - [Identity] : The (kind, id) pair used for equality and library dedup
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [User] : Account record handed out by the auth collaborator
//   - [LibraryEntry] : One saved position in a user's library snapshot
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
