// Package tasks runs long-lived library operations with real-time progress reporting.
//
// # Bulk Import
//
// [ImportEngine.Import] adds a list of inputs to the library in one pass:
//
//  1. Each input is resolved by a worker pool
//     - Pasted links go through the [services.LinkResolver] and never touch the network
//     - Anything else is treated as a search query against the configured catalog; the first match wins
//     - Searches share one [rate.Limiter] so a long file cannot flood the provider
//  2. Resolved tracks are added in input order
//     - The library's first-write-wins rule applies, so repeated inputs count as duplicates
//     - A failed line is recorded and the import continues
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
