// Package describe produces short natural-language descriptions of books
// from their titles, for use as semantic query text. Results are cached in
// an on-disk JSON file keyed by a content hash of the normalized title; when
// no generation backend is configured or the backend fails, a deterministic
// templated description keeps the pipeline moving.
package describe
