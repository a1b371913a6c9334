package core

import (
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"
)

// MatchType records which tier of the search pipeline produced a result.
type MatchType string

const (
	// MatchExact is a case-insensitive full-title match.
	MatchExact MatchType = "exact"
	// MatchFuzzy is a typo-tolerant match within the error-rate threshold.
	MatchFuzzy MatchType = "fuzzy"
	// MatchSemantic is a description-similarity match from the vector index.
	MatchSemantic MatchType = "semantic"
	// MatchExternal is a result fetched from the external catalog fallback.
	MatchExternal MatchType = "external"
)

// Book source tags.
const (
	SourceLocal    = "local"
	SourceExternal = "external"
)

// Book represents a single catalog entry. Books are immutable once ingested,
// except for a description backfill.
type Book struct {
	ID          string
	Title       string
	Author      string
	Genre       string
	Description string
	Language    string
	Source      string
}

// BookMeta is the metadata stored alongside each vector in the embedding
// index. Its position in the metadata sidecar corresponds 1:1 with the
// vector position in the index file.
type BookMeta struct {
	BookID string `json:"book_id"`
}

// MatchResult is a catalog book annotated with match provenance.
// IsRecommendation is false for the primary match and true for books
// surfaced purely by description similarity.
type MatchResult struct {
	Book             Book
	MatchType        MatchType
	IsRecommendation bool
	// Similarity is the cosine similarity for semantic results,
	// rounded to four decimals. Zero for other match types.
	Similarity float32
}

// HashContent returns a hex-encoded BLAKE2b digest of the given text.
// Identical content always produces an identical digest.
func HashContent(text string) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
