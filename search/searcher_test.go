package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/bookmatch/core"
	"github.com/poiesic/bookmatch/storage"
	badgerstore "github.com/poiesic/bookmatch/storage/badger"
	"github.com/poiesic/bookmatch/vecstore"
)

type fakeVectorSearcher struct {
	hits []vecstore.SearchHit
	err  error
}

func (f *fakeVectorSearcher) Search(ctx context.Context, queryText string, topK int) ([]vecstore.SearchHit, error) {
	if f.err != nil {
		return nil, f.err
	}
	if topK < len(f.hits) {
		return f.hits[:topK], nil
	}
	return f.hits, nil
}

type fakeDescriptionSource struct {
	err   error
	calls int
}

func (f *fakeDescriptionSource) GenerateDescription(ctx context.Context, title string, useCache bool) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "A story about " + title + ".", nil
}

type fakeExternalSource struct {
	books []core.Book
	err   error
	calls int
}

func (f *fakeExternalSource) Search(ctx context.Context, query string) ([]core.Book, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.books, nil
}

func newTestCatalog(t *testing.T, books ...core.Book) storage.CatalogRepository {
	t.Helper()

	catalog, backend, err := badgerstore.NewMemoryCatalog()
	require.NoError(t, err)
	t.Cleanup(func() {
		catalog.Close()
		backend.Close()
	})

	if len(books) > 0 {
		require.NoError(t, catalog.AddBooks(context.Background(), books...))
	}
	return catalog
}

func testBooks() []core.Book {
	return []core.Book{
		{ID: "b1", Title: "1984", Author: "George Orwell", Genre: "Dystopian"},
		{ID: "b2", Title: "Brave New World", Author: "Aldous Huxley", Genre: "Dystopian"},
		{ID: "b3", Title: "Fahrenheit 451", Author: "Ray Bradbury", Genre: "Dystopian"},
		{ID: "b4", Title: "We", Author: "Yevgeny Zamyatin", Genre: "Dystopian"},
	}
}

func TestNewSearcher(t *testing.T) {
	catalog := newTestCatalog(t)
	store := &fakeVectorSearcher{}
	generator := &fakeDescriptionSource{}

	t.Run("nil catalog", func(t *testing.T) {
		_, err := NewSearcher(nil, store, generator)
		assert.ErrorIs(t, err, ErrCatalogRequired)
	})

	t.Run("nil vector store", func(t *testing.T) {
		_, err := NewSearcher(catalog, nil, generator)
		assert.ErrorIs(t, err, ErrVectorStoreRequired)
	})

	t.Run("nil generator", func(t *testing.T) {
		_, err := NewSearcher(catalog, store, nil)
		assert.ErrorIs(t, err, ErrGeneratorRequired)
	})

	t.Run("valid arguments", func(t *testing.T) {
		s, err := NewSearcher(catalog, store, generator)
		require.NoError(t, err)
		assert.Equal(t, DefaultTopK, s.topK)
		assert.Equal(t, DefaultFuzzyThreshold, s.threshold)
	})

	t.Run("options applied", func(t *testing.T) {
		s, err := NewSearcher(catalog, store, generator, WithTopK(3), WithFuzzyThreshold(0.5))
		require.NoError(t, err)
		assert.Equal(t, 3, s.topK)
		assert.Equal(t, 0.5, s.threshold)
	})
}

func TestSearchExactMatch(t *testing.T) {
	catalog := newTestCatalog(t, testBooks()...)
	store := &fakeVectorSearcher{
		hits: []vecstore.SearchHit{
			{Meta: core.BookMeta{BookID: "b2"}, Similarity: 0.91},
			{Meta: core.BookMeta{BookID: "b3"}, Similarity: 0.84},
		},
	}
	searcher, err := NewSearcher(catalog, store, &fakeDescriptionSource{})
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), "1984")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, core.MatchExact, results[0].MatchType)
	assert.Equal(t, "1984", results[0].Book.Title)
	assert.False(t, results[0].IsRecommendation)

	assert.Equal(t, core.MatchSemantic, results[1].MatchType)
	assert.Equal(t, "Brave New World", results[1].Book.Title)
	assert.True(t, results[1].IsRecommendation)
	assert.InDelta(t, 0.91, results[1].Similarity, 1e-6)

	assert.Equal(t, core.MatchSemantic, results[2].MatchType)
	assert.Equal(t, "Fahrenheit 451", results[2].Book.Title)
}

func TestSearchExactMatchIsCaseInsensitive(t *testing.T) {
	catalog := newTestCatalog(t, testBooks()...)
	searcher, err := NewSearcher(catalog, &fakeVectorSearcher{}, &fakeDescriptionSource{})
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), "brave new world")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, core.MatchExact, results[0].MatchType)
	assert.Equal(t, "Brave New World", results[0].Book.Title)
}

func TestSearchFuzzyMatch(t *testing.T) {
	catalog := newTestCatalog(t, testBooks()...)
	searcher, err := NewSearcher(catalog, &fakeVectorSearcher{}, &fakeDescriptionSource{})
	require.NoError(t, err)

	// "1983" vs "1984" is one substitution over four characters, CER 0.25.
	results, err := searcher.Search(context.Background(), "1983")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, core.MatchFuzzy, results[0].MatchType)
	assert.Equal(t, "1984", results[0].Book.Title)
	assert.False(t, results[0].IsRecommendation)
}

func TestSearchFuzzyRespectsThreshold(t *testing.T) {
	catalog := newTestCatalog(t, testBooks()...)
	searcher, err := NewSearcher(catalog, &fakeVectorSearcher{}, &fakeDescriptionSource{})
	require.NoError(t, err)

	// Nothing in the catalog is within the default error rate of this query.
	results, err := searcher.Search(context.Background(), "The Silmarillion")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchSemanticOnly(t *testing.T) {
	catalog := newTestCatalog(t, testBooks()...)
	store := &fakeVectorSearcher{
		hits: []vecstore.SearchHit{
			{Meta: core.BookMeta{BookID: "b1"}, Similarity: 0.77},
			{Meta: core.BookMeta{BookID: "b4"}, Similarity: 0.65},
		},
	}
	generator := &fakeDescriptionSource{}
	searcher, err := NewSearcher(catalog, store, generator)
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), "surveillance state fiction")
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.Equal(t, core.MatchSemantic, r.MatchType)
		assert.True(t, r.IsRecommendation)
	}
	assert.Equal(t, "1984", results[0].Book.Title)
	assert.Equal(t, "We", results[1].Book.Title)
	assert.Equal(t, 1, generator.calls)
}

func TestSearchDeduplicatesSemanticHits(t *testing.T) {
	catalog := newTestCatalog(t, testBooks()...)
	store := &fakeVectorSearcher{
		hits: []vecstore.SearchHit{
			// The exact match itself comes back as the nearest neighbor.
			{Meta: core.BookMeta{BookID: "b1"}, Similarity: 0.99},
			{Meta: core.BookMeta{BookID: "b2"}, Similarity: 0.88},
		},
	}
	searcher, err := NewSearcher(catalog, store, &fakeDescriptionSource{})
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), "1984")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, core.MatchExact, results[0].MatchType)
	assert.Equal(t, "b1", results[0].Book.ID)
	assert.Equal(t, core.MatchSemantic, results[1].MatchType)
	assert.Equal(t, "b2", results[1].Book.ID)
}

func TestSearchNormalizesIndexedIDs(t *testing.T) {
	catalog := newTestCatalog(t, testBooks()...)
	store := &fakeVectorSearcher{
		hits: []vecstore.SearchHit{
			{Meta: core.BookMeta{BookID: "b2"}, Similarity: 0.9},
		},
	}
	searcher, err := NewSearcher(catalog, store, &fakeDescriptionSource{})
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), "totalitarian futures")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b2", results[0].Book.ID)
}

func TestSearchSkipsStaleIndexEntries(t *testing.T) {
	catalog := newTestCatalog(t, testBooks()...)
	store := &fakeVectorSearcher{
		hits: []vecstore.SearchHit{
			{Meta: core.BookMeta{BookID: "deleted"}, Similarity: 0.95},
			{Meta: core.BookMeta{BookID: "b3"}, Similarity: 0.7},
		},
	}
	searcher, err := NewSearcher(catalog, store, &fakeDescriptionSource{})
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), "book burning")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b3", results[0].Book.ID)
}

func TestSearchSemanticFailureKeepsEarlierTiers(t *testing.T) {
	catalog := newTestCatalog(t, testBooks()...)
	store := &fakeVectorSearcher{err: errors.New("index offline")}
	searcher, err := NewSearcher(catalog, store, &fakeDescriptionSource{})
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), "1984")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.MatchExact, results[0].MatchType)
}

func TestSearchGeneratorFailureKeepsEarlierTiers(t *testing.T) {
	catalog := newTestCatalog(t, testBooks()...)
	generator := &fakeDescriptionSource{err: errors.New("model offline")}
	searcher, err := NewSearcher(catalog, &fakeVectorSearcher{}, generator)
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), "1984")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.MatchExact, results[0].MatchType)
}

func TestSearchExternalFallback(t *testing.T) {
	catalog := newTestCatalog(t)
	external := &fakeExternalSource{
		books: []core.Book{
			{ID: "ext-the_dispossessed", Title: "The Dispossessed", Author: "Ursula K. Le Guin", Source: core.SourceExternal},
		},
	}
	searcher, err := NewSearcher(catalog, &fakeVectorSearcher{}, &fakeDescriptionSource{},
		WithExternalSource(external))
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), "The Dispossessed")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.MatchExternal, results[0].MatchType)
	assert.False(t, results[0].IsRecommendation)
	assert.Equal(t, "ext-the_dispossessed", results[0].Book.ID)
	assert.Equal(t, 1, external.calls)
}

func TestSearchExternalSkippedWhenLocalResultsExist(t *testing.T) {
	catalog := newTestCatalog(t, testBooks()...)
	external := &fakeExternalSource{books: []core.Book{{ID: "ext-x", Title: "X"}}}
	searcher, err := NewSearcher(catalog, &fakeVectorSearcher{}, &fakeDescriptionSource{},
		WithExternalSource(external))
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), "1984")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, 0, external.calls)
}

func TestSearchExternalFailureReturnsEmpty(t *testing.T) {
	catalog := newTestCatalog(t)
	external := &fakeExternalSource{err: errors.New("connection refused")}
	searcher, err := NewSearcher(catalog, &fakeVectorSearcher{}, &fakeDescriptionSource{},
		WithExternalSource(external))
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), "anything at all")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchEmptyQuery(t *testing.T) {
	catalog := newTestCatalog(t, testBooks()...)
	generator := &fakeDescriptionSource{}
	external := &fakeExternalSource{books: []core.Book{{ID: "ext-x", Title: "X"}}}
	searcher, err := NewSearcher(catalog, &fakeVectorSearcher{}, generator,
		WithExternalSource(external))
	require.NoError(t, err)

	for _, query := range []string{"", "   ", "\t\n"} {
		results, err := searcher.Search(context.Background(), query)
		require.NoError(t, err)
		assert.Empty(t, results)
	}
	assert.Equal(t, 0, generator.calls)
	assert.Equal(t, 0, external.calls)
}

func TestSearchTopKOption(t *testing.T) {
	catalog := newTestCatalog(t, testBooks()...)
	store := &fakeVectorSearcher{
		hits: []vecstore.SearchHit{
			{Meta: core.BookMeta{BookID: "b1"}, Similarity: 0.9},
			{Meta: core.BookMeta{BookID: "b2"}, Similarity: 0.8},
			{Meta: core.BookMeta{BookID: "b3"}, Similarity: 0.7},
		},
	}
	searcher, err := NewSearcher(catalog, store, &fakeDescriptionSource{}, WithTopK(2))
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), "oppressive regimes")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

type recordingMonitor struct {
	started     string
	exactHits   int
	fuzzyHits   int
	semHits     int
	duplicates  []string
	externalLen int
	finished    int
}

func (m *recordingMonitor) Start(query string)                            { m.started = query }
func (m *recordingMonitor) ExactHit(book *core.Book)                      { m.exactHits++ }
func (m *recordingMonitor) FuzzyHit(book *core.Book, cer float64)         { m.fuzzyHits++ }
func (m *recordingMonitor) AfterSemanticSearch(hits []vecstore.SearchHit) {}
func (m *recordingMonitor) SemanticHit(book *core.Book, similarity float32) {
	m.semHits++
}
func (m *recordingMonitor) DuplicateDropped(bookID string) {
	m.duplicates = append(m.duplicates, bookID)
}
func (m *recordingMonitor) AfterExternalFallback(count int)   { m.externalLen = count }
func (m *recordingMonitor) Finish(results []core.MatchResult) { m.finished = len(results) }

func TestSearchWithMonitor(t *testing.T) {
	catalog := newTestCatalog(t, testBooks()...)
	store := &fakeVectorSearcher{
		hits: []vecstore.SearchHit{
			{Meta: core.BookMeta{BookID: "b1"}, Similarity: 0.99},
			{Meta: core.BookMeta{BookID: "b4"}, Similarity: 0.6},
		},
	}
	searcher, err := NewSearcher(catalog, store, &fakeDescriptionSource{})
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	results, err := searcher.SearchWithMonitor(context.Background(), "1984", monitor)
	require.NoError(t, err)

	assert.Equal(t, "1984", monitor.started)
	assert.Equal(t, 1, monitor.exactHits)
	assert.Equal(t, 0, monitor.fuzzyHits)
	assert.Equal(t, 1, monitor.semHits)
	assert.Equal(t, []string{"b1"}, monitor.duplicates)
	assert.Equal(t, len(results), monitor.finished)
}
