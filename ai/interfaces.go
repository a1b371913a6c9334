package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// DescriptionModel generates a short natural-language description of a book
// from its title. The description is used as the query text for semantic
// similarity search, so it must stay useful even for unrecognized titles.
// Implementations must be thread-safe for concurrent use.
type DescriptionModel interface {
	// GenerateDescription produces a description for the given book title.
	// Returns an error if the generation backend is unreachable or returns
	// an empty completion; callers are expected to fall back to a
	// deterministic templated description in that case.
	GenerateDescription(ctx context.Context, title string) (string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and DescriptionModel
// instances, ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// DescriptionModel returns the description generation service.
	// The returned DescriptionModel is safe for concurrent use.
	DescriptionModel() DescriptionModel

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
