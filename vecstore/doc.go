// Package vecstore maintains the embedding index over catalog book
// descriptions: a flat inner-product index of unit-normalized float32
// vectors with a parallel metadata sidecar. Vector position and metadata
// position correspond 1:1; the persistence format preserves that ordering.
package vecstore
