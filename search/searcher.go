package search

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/bookmatch/core"
	"github.com/poiesic/bookmatch/storage"
	"github.com/poiesic/bookmatch/vecstore"
)

// DefaultTopK is the default number of semantic recommendations per query.
const DefaultTopK = 5

// VectorSearcher is the slice of the vector store the searcher needs.
type VectorSearcher interface {
	// Search returns the topK nearest index entries for the query text,
	// in descending similarity order.
	Search(ctx context.Context, queryText string, topK int) ([]vecstore.SearchHit, error)
}

// DescriptionSource turns a query title into semantic query text.
type DescriptionSource interface {
	GenerateDescription(ctx context.Context, title string, useCache bool) (string, error)
}

// ExternalSource is the external catalog consulted when nothing matches
// locally.
type ExternalSource interface {
	Search(ctx context.Context, query string) ([]core.Book, error)
}

// Searcher runs the tiered matching pipeline over a single query:
// exact, then fuzzy, then semantic (always), then the external fallback
// when everything else came up empty.
type Searcher struct {
	catalog   storage.CatalogRepository
	store     VectorSearcher
	generator DescriptionSource
	external  ExternalSource
	topK      int
	threshold float64
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithTopK sets the number of semantic recommendations requested per query.
// Default is DefaultTopK.
func WithTopK(topK int) Option {
	return func(s *Searcher) error {
		if topK > 0 {
			s.topK = topK
		}
		return nil
	}
}

// WithFuzzyThreshold sets the maximum character error rate accepted as a
// fuzzy match. Default is DefaultFuzzyThreshold.
func WithFuzzyThreshold(threshold float64) Option {
	return func(s *Searcher) error {
		if threshold > 0 {
			s.threshold = threshold
		}
		return nil
	}
}

// WithExternalSource sets the external catalog fallback.
// Without one the pipeline simply returns an empty set when all local tiers
// miss.
func WithExternalSource(external ExternalSource) Option {
	return func(s *Searcher) error {
		s.external = external
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	catalog storage.CatalogRepository,
	store VectorSearcher,
	generator DescriptionSource,
	opts ...Option,
) (*Searcher, error) {
	if catalog == nil {
		return nil, ErrCatalogRequired
	}
	if store == nil {
		return nil, ErrVectorStoreRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	s := &Searcher{
		catalog:   catalog,
		store:     store,
		generator: generator,
		topK:      DefaultTopK,
		threshold: DefaultFuzzyThreshold,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search resolves a free-text query into matched and recommended books.
// The primary match (if any) comes first, followed by semantic
// recommendations in descending similarity order. An ordinary "no match"
// outcome returns an empty list, never an error.
func (s *Searcher) Search(ctx context.Context, query string) ([]core.MatchResult, error) {
	return s.SearchWithMonitor(ctx, query, nil)
}

// SearchWithMonitor runs Search with per-tier monitoring callbacks.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, monitor SearchMonitor) ([]core.MatchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	// Empty or whitespace-only queries short-circuit every tier.
	if core.NormalizeTitle(query) == "" {
		results := []core.MatchResult{}
		monitor.Finish(results)
		return results, nil
	}

	results := []core.MatchResult{}
	seen := make(map[string]bool)

	// 1. Exact: case-insensitive full-title equality.
	primary, err := s.exactTier(ctx, query)
	if err != nil {
		return nil, err
	}
	if primary != nil {
		monitor.ExactHit(primary)
		results = append(results, core.MatchResult{Book: *primary, MatchType: core.MatchExact})
		seen[primary.ID] = true
	}

	// 2. Fuzzy: only when exact found nothing.
	if primary == nil {
		book, cer, err := s.fuzzyTier(ctx, query)
		if err != nil {
			return nil, err
		}
		if book != nil {
			monitor.FuzzyHit(book, cer)
			results = append(results, core.MatchResult{Book: *book, MatchType: core.MatchFuzzy})
			seen[book.ID] = true
		}
	}

	// 3. Semantic: always runs, independent of the first two tiers.
	// Failures here must not discard what the earlier tiers found.
	semantic, err := s.semanticTier(ctx, query, seen, monitor)
	if err != nil {
		s.logger.Warn("semantic tier unavailable", "query", query, "err", err)
	} else {
		results = append(results, semantic...)
	}

	// 4. External fallback: only when everything local came up empty.
	if len(results) == 0 && s.external != nil {
		external, err := s.external.Search(ctx, query)
		if err != nil {
			// The last tier failing means "no results", not a hard error.
			s.logger.Warn("external catalog unavailable", "query", query, "err", err)
			monitor.Finish(results)
			return results, nil
		}
		monitor.AfterExternalFallback(len(external))
		for _, book := range external {
			results = append(results, core.MatchResult{Book: book, MatchType: core.MatchExternal})
		}
	}

	monitor.Finish(results)
	return results, nil
}

func (s *Searcher) exactTier(ctx context.Context, query string) (*core.Book, error) {
	book, err := s.catalog.GetBookByTitle(ctx, query)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (s *Searcher) fuzzyTier(ctx context.Context, query string) (*core.Book, float64, error) {
	books, err := s.catalog.AllBooks(ctx)
	if err != nil {
		return nil, 0, err
	}

	titles := make([]string, len(books))
	for i, book := range books {
		titles[i] = book.Title
	}

	match, ok := FuzzySearch(query, titles, s.threshold)
	if !ok {
		return nil, 0, nil
	}
	return &books[match.Index], match.CER, nil
}

func (s *Searcher) semanticTier(ctx context.Context, query string, seen map[string]bool, monitor SearchMonitor) ([]core.MatchResult, error) {
	description, err := s.generator.GenerateDescription(ctx, query, true)
	if err != nil {
		return nil, err
	}

	hits, err := s.store.Search(ctx, description, s.topK)
	if err != nil {
		return nil, err
	}
	monitor.AfterSemanticSearch(hits)

	results := make([]core.MatchResult, 0, len(hits))
	for _, hit := range hits {
		id := core.NormalizeID(hit.Meta.BookID)
		if seen[id] {
			monitor.DuplicateDropped(id)
			continue
		}

		book, err := s.catalog.GetBook(ctx, id)
		if err != nil {
			// A stale index entry should not sink the other hits.
			s.logger.Warn("indexed book missing from catalog", "bookID", id, "err", err)
			continue
		}

		monitor.SemanticHit(book, hit.Similarity)
		results = append(results, core.MatchResult{
			Book:             *book,
			MatchType:        core.MatchSemantic,
			IsRecommendation: true,
			Similarity:       hit.Similarity,
		})
		seen[id] = true
	}

	return results, nil
}
