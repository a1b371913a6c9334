// Package search implements the tiered book matching pipeline:
// exact title match, typo-tolerant fuzzy match, semantic similarity
// search over description embeddings, and an external catalog fallback.
package search
