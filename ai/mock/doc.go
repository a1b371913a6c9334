// Package mock provides deterministic test doubles for the ai interfaces.
// The mock embedder derives unit vectors from a hash of the input text, so
// identical texts always embed identically without a network dependency.
package mock
