// Package ingest loads books into the catalog and keeps the vector index
// in step with it. Index builds can optionally backfill missing
// descriptions through the description generator, fanning the work out
// over a bounded goroutine pool.
package ingest
