package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/bookmatch/core"
	"github.com/poiesic/bookmatch/storage"
)

func newTestCatalog(t *testing.T) storage.CatalogRepository {
	t.Helper()

	catalog, backend, err := NewMemoryCatalog()
	require.NoError(t, err)
	t.Cleanup(func() {
		catalog.Close()
		backend.Close()
	})
	return catalog
}

func TestNewCatalogRepository(t *testing.T) {
	t.Run("nil backend returns error", func(t *testing.T) {
		_, err := NewCatalogRepository(nil)
		assert.Error(t, err)
	})

	t.Run("valid backend succeeds", func(t *testing.T) {
		catalog := newTestCatalog(t)
		assert.NotNil(t, catalog)
	})
}

func TestCatalogAddAndGet(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog(t)

	book := core.Book{
		ID:          "9780452284234",
		Title:       "1984",
		Author:      "George Orwell",
		Genre:       "Dystopian",
		Description: "A chilling vision of total surveillance.",
		Language:    "en",
	}
	require.NoError(t, catalog.AddBooks(ctx, book))

	got, err := catalog.GetBook(ctx, "9780452284234")
	require.NoError(t, err)
	assert.Equal(t, "1984", got.Title)
	assert.Equal(t, "George Orwell", got.Author)
	assert.Equal(t, core.SourceLocal, got.Source)
}

func TestCatalogGetBookNotFound(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog(t)

	_, err := catalog.GetBook(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCatalogGetBookByTitle(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog(t)

	require.NoError(t, catalog.AddBooks(ctx, core.Book{
		ID:     "b1",
		Title:  "The Left Hand of Darkness",
		Author: "Ursula K. Le Guin",
	}))

	t.Run("case insensitive lookup", func(t *testing.T) {
		got, err := catalog.GetBookByTitle(ctx, "the left hand of darkness")
		require.NoError(t, err)
		assert.Equal(t, "b1", got.ID)
	})

	t.Run("surrounding whitespace ignored", func(t *testing.T) {
		got, err := catalog.GetBookByTitle(ctx, "  The Left Hand of Darkness  ")
		require.NoError(t, err)
		assert.Equal(t, "b1", got.ID)
	})

	t.Run("unknown title", func(t *testing.T) {
		_, err := catalog.GetBookByTitle(ctx, "The Right Hand of Darkness")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestCatalogNormalizesFloatCoercedIDs(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog(t)

	require.NoError(t, catalog.AddBooks(ctx, core.Book{
		ID:    "9780452284234.0",
		Title: "1984",
	}))

	got, err := catalog.GetBook(ctx, "9780452284234")
	require.NoError(t, err)
	assert.Equal(t, "9780452284234", got.ID)
}

func TestCatalogDefaults(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog(t)

	require.NoError(t, catalog.AddBooks(ctx, core.Book{
		ID:    "b2",
		Title: "Untitled Draft",
	}))

	got, err := catalog.GetBook(ctx, "b2")
	require.NoError(t, err)
	assert.Equal(t, "Unknown", got.Author)
	assert.Equal(t, "en", got.Language)
	assert.Equal(t, core.SourceLocal, got.Source)
}

func TestCatalogRejectsInvalidBooks(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog(t)

	t.Run("missing id", func(t *testing.T) {
		err := catalog.AddBooks(ctx, core.Book{Title: "No ID"})
		assert.ErrorIs(t, err, core.ErrEmptyBookID)
	})

	t.Run("missing title", func(t *testing.T) {
		err := catalog.AddBooks(ctx, core.Book{ID: "no-title"})
		assert.ErrorIs(t, err, core.ErrEmptyBookTitle)
	})
}

func TestCatalogAllBooksAndCount(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog(t)

	books := []core.Book{
		{ID: "b1", Title: "Dune", Author: "Frank Herbert"},
		{ID: "b2", Title: "Hyperion", Author: "Dan Simmons"},
		{ID: "b3", Title: "Blindsight", Author: "Peter Watts"},
	}
	require.NoError(t, catalog.AddBooks(ctx, books...))

	all, err := catalog.AllBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	titles := make(map[string]bool, len(all))
	for _, b := range all {
		titles[b.Title] = true
	}
	assert.True(t, titles["Dune"])
	assert.True(t, titles["Hyperion"])
	assert.True(t, titles["Blindsight"])

	count, err := catalog.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCatalogUpsertReplacesExisting(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog(t)

	require.NoError(t, catalog.AddBooks(ctx, core.Book{ID: "b1", Title: "Dune"}))
	require.NoError(t, catalog.AddBooks(ctx, core.Book{
		ID:          "b1",
		Title:       "Dune",
		Description: "Spice and sandworms on Arrakis.",
	}))

	got, err := catalog.GetBook(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Spice and sandworms on Arrakis.", got.Description)

	count, err := catalog.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
