package bookmatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/bookmatch/ai/mock"
	"github.com/poiesic/bookmatch/core"
)

func newTestService(t *testing.T, dir string) *Service {
	t.Helper()

	service, err := NewService(dir, WithProvider(mock.NewProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { service.Close() })
	return service
}

func seedBooks(t *testing.T, service *Service) {
	t.Helper()

	require.NoError(t, service.AddBooks(context.Background(),
		core.Book{ID: "b1", Title: "1984", Author: "George Orwell", Genre: "Dystopian",
			Description: "A chilling vision of total surveillance."},
		core.Book{ID: "b2", Title: "Brave New World", Author: "Aldous Huxley", Genre: "Dystopian",
			Description: "Engineered contentment in a caste-bound future."},
		core.Book{ID: "b3", Title: "Fahrenheit 451", Author: "Ray Bradbury", Genre: "Dystopian",
			Description: "Firemen burn books in a world that stopped reading."},
	))
}

func TestServiceSearchExact(t *testing.T) {
	service := newTestService(t, t.TempDir())
	seedBooks(t, service)

	results, err := service.Search(context.Background(), "1984")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, core.MatchExact, results[0].MatchType)
	assert.Equal(t, "1984", results[0].Book.Title)

	// Recommendations follow the primary match and never repeat it.
	for _, r := range results[1:] {
		assert.Equal(t, core.MatchSemantic, r.MatchType)
		assert.True(t, r.IsRecommendation)
		assert.NotEqual(t, "b1", r.Book.ID)
	}
}

func TestServiceSearchFuzzy(t *testing.T) {
	service := newTestService(t, t.TempDir())
	seedBooks(t, service)

	results, err := service.Search(context.Background(), "1983")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, core.MatchFuzzy, results[0].MatchType)
	assert.Equal(t, "1984", results[0].Book.Title)
}

func TestServiceSearchEmptyCatalog(t *testing.T) {
	service := newTestService(t, t.TempDir())

	results, err := service.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestServiceBuildIndexAndStats(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t, t.TempDir())
	seedBooks(t, service)

	require.NoError(t, service.BuildIndex(ctx))

	stats, err := service.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Books)
	assert.Equal(t, 3, stats.Index.Vectors)
	assert.True(t, stats.Index.IndexExists)
	assert.True(t, stats.Index.MetaExists)
}

func TestServiceIndexSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	service, err := NewService(dir, WithProvider(mock.NewProvider()))
	require.NoError(t, err)
	seedBooks(t, service)
	require.NoError(t, service.Close())

	reopened := newTestService(t, dir)
	stats, err := reopened.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Books)
	assert.Equal(t, 3, stats.Index.Vectors)

	results, err := reopened.Search(ctx, "brave new world")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, core.MatchExact, results[0].MatchType)
}

func TestServiceSearcherAndPipelineAccessors(t *testing.T) {
	service := newTestService(t, t.TempDir())

	searcher, err := service.NewSearcher()
	require.NoError(t, err)
	assert.NotNil(t, searcher)

	pipeline, err := service.NewPipeline()
	require.NoError(t, err)
	pipeline.Close()

	assert.NotNil(t, service.Catalog())
	assert.NotNil(t, service.VectorStore())
	assert.NotNil(t, service.Generator())
}
