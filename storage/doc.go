// Package storage defines the persistence interfaces for the book catalog
// and the shared serialization helpers. Concrete backends live in
// subpackages (badger for the embedded KV store).
package storage
