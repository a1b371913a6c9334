package storage

import (
	"context"

	"github.com/poiesic/bookmatch/core"
)

// CatalogRepository provides operations for managing catalog books.
// Implementations must be thread-safe and support concurrent access.
type CatalogRepository interface {
	// AddBooks adds one or more books to the catalog.
	// Identifiers are normalized and each book is validated before storage;
	// missing optional fields are filled with defaults. Re-adding an id
	// overwrites the previous record.
	AddBooks(ctx context.Context, books ...core.Book) error

	// GetBook retrieves a single book by its normalized identifier.
	// Returns ErrNotFound if the book doesn't exist.
	GetBook(ctx context.Context, id string) (*core.Book, error)

	// GetBookByTitle retrieves a book by case-insensitive, trimmed title
	// equality. Returns ErrNotFound if no book carries the title.
	GetBookByTitle(ctx context.Context, title string) (*core.Book, error)

	// AllBooks returns a snapshot of every book in the catalog.
	AllBooks(ctx context.Context) ([]core.Book, error)

	// Count returns the number of books in the catalog.
	Count(ctx context.Context) (int, error)

	// Close closes the repository and releases resources.
	Close() error
}
