package vecstore

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/poiesic/bookmatch/ai"
	"github.com/poiesic/bookmatch/core"
)

const (
	indexFileName = "books.idx"
	metaFileName  = "books_meta.json"

	// normEpsilon avoids division by zero for degenerate vectors.
	normEpsilon = 1e-8
)

// SearchHit is a single nearest-neighbor result: the indexed metadata and
// the cosine similarity to the query, rounded to four decimals.
type SearchHit struct {
	Meta       core.BookMeta
	Similarity float32
}

// Store is a flat inner-product index over unit-normalized embeddings.
// Searches may run concurrently; Create, Add, Save, Load and Delete take the
// writer lock.
type Store struct {
	embedder ai.Embedder
	logger   *slog.Logger

	indexPath string
	metaPath  string

	mu      sync.RWMutex
	dim     int
	vectors [][]float32
	meta    []core.BookMeta
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewStore creates a vector store persisting into dir. The directory is
// created if absent; failure to create it is a configuration error and
// propagates.
func NewStore(dir string, embedder ai.Embedder, opts ...Option) (*Store, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	s := &Store{
		embedder:  embedder,
		logger:    slog.Default().With("component", "vecstore"),
		indexPath: filepath.Join(dir, indexFileName),
		metaPath:  filepath.Join(dir, metaFileName),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Create builds a fresh index from texts and their metadata, replacing any
// existing in-memory index. Vector i corresponds to metadata i.
func (s *Store) Create(ctx context.Context, texts []string, meta []core.BookMeta) error {
	if len(texts) != len(meta) {
		return ErrLengthMismatch
	}

	vectors, dim, err := s.embedAll(ctx, texts, 0)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dim = dim
	s.vectors = vectors
	s.meta = append([]core.BookMeta(nil), meta...)

	s.logger.Info("index created", "vectors", len(vectors), "dim", dim)
	return nil
}

// Add appends new texts and metadata to an existing index.
// Returns ErrIndexNotLoaded if no index was created or loaded yet.
func (s *Store) Add(ctx context.Context, texts []string, meta []core.BookMeta) error {
	if len(texts) != len(meta) {
		return ErrLengthMismatch
	}

	s.mu.RLock()
	dim := s.dim
	s.mu.RUnlock()
	if dim == 0 {
		return ErrIndexNotLoaded
	}

	vectors, _, err := s.embedAll(ctx, texts, dim)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.vectors = append(s.vectors, vectors...)
	s.meta = append(s.meta, meta...)

	s.logger.Info("vectors added", "added", len(vectors), "total", len(s.vectors))
	return nil
}

// Search embeds the query text and returns the topK nearest index entries by
// cosine similarity, in descending score order. topK is clamped to the index
// size. Returns ErrIndexNotLoaded when no index is available and
// ErrDimensionMismatch when the query embedding does not fit the index.
func (s *Store) Search(ctx context.Context, queryText string, topK int) ([]SearchHit, error) {
	s.mu.RLock()
	loaded := s.dim > 0 && len(s.vectors) > 0
	s.mu.RUnlock()
	if !loaded {
		return nil, ErrIndexNotLoaded
	}

	embedding, err := s.embedder.EmbedText(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	query := normalize(embedding)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: query %d, index %d", ErrDimensionMismatch, len(query), s.dim)
	}

	if topK < 1 {
		topK = 1
	}
	if topK > len(s.vectors) {
		topK = len(s.vectors)
	}

	hits := make([]SearchHit, 0, len(s.vectors))
	for i, vector := range s.vectors {
		var score float32
		for j := range vector {
			score += vector[j] * query[j]
		}
		hits = append(hits, SearchHit{Meta: s.meta[i], Similarity: round4(score)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	return hits[:topK], nil
}

// Len returns the number of indexed vectors.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Stats describes the state of the vector store.
type Stats struct {
	Dim         int
	Vectors     int
	IndexExists bool
	MetaExists  bool
}

// Stats returns statistics about the vector store.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	dim, vectors := s.dim, len(s.vectors)
	s.mu.RUnlock()

	_, indexErr := os.Stat(s.indexPath)
	_, metaErr := os.Stat(s.metaPath)
	return Stats{
		Dim:         dim,
		Vectors:     vectors,
		IndexExists: indexErr == nil,
		MetaExists:  metaErr == nil,
	}
}

// embedAll embeds texts in a single batch and normalizes every vector.
// When wantDim is nonzero the embeddings must match it.
func (s *Store) embedAll(ctx context.Context, texts []string, wantDim int) ([][]float32, int, error) {
	if len(texts) == 0 {
		return nil, wantDim, nil
	}

	embeddings, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, 0, fmt.Errorf("embed texts: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, 0, fmt.Errorf("%w: embedder returned %d vectors for %d texts",
			ErrCorruptIndex, len(embeddings), len(texts))
	}

	dim := wantDim
	vectors := make([][]float32, len(embeddings))
	for i, embedding := range embeddings {
		if dim == 0 {
			dim = len(embedding)
		}
		if len(embedding) != dim {
			return nil, 0, fmt.Errorf("%w: vector %d has dim %d, want %d",
				ErrDimensionMismatch, i, len(embedding), dim)
		}
		vectors[i] = normalize(embedding)
	}

	return vectors, dim, nil
}

// normalize scales a vector to unit length: v / (||v|| + ε).
// Returns a new vector.
func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	norm := float32(math.Sqrt(sumSquares)) + normEpsilon

	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / norm
	}
	return result
}

// round4 rounds a similarity score to four decimal digits for stable
// comparisons and display.
func round4(v float32) float32 {
	return float32(math.Round(float64(v)*10000) / 10000)
}
