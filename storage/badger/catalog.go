package badger

import (
	"context"
	"errors"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/bookmatch/core"
	"github.com/poiesic/bookmatch/storage"
)

// CatalogRepository implements storage.CatalogRepository for BadgerDB.
// Books are stored under an id key plus a normalized-title index entry.
type CatalogRepository struct {
	backend *Backend
}

var _ storage.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(backend *Backend) (*CatalogRepository, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return &CatalogRepository{
		backend: backend,
	}, nil
}

// Close releases resources. CatalogRepository has no resources to release.
func (r *CatalogRepository) Close() error {
	return nil
}

// AddBooks adds one or more books to the catalog.
// Identifiers are normalized once here, at the ingestion boundary, and
// missing optional fields are filled with defaults.
func (r *CatalogRepository) AddBooks(ctx context.Context, books ...core.Book) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for i := range books {
			book := normalizeBook(books[i])
			if err := core.ValidateBook(&book); err != nil {
				return err
			}

			key := makeBookKey(book.ID)
			if err := tx.Set(key, storage.MarshalBook(&book)); err != nil {
				return err
			}

			if err := tx.Set(makeTitleKey(book.Title), []byte(book.ID)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetBook retrieves a single book by ID.
func (r *CatalogRepository) GetBook(ctx context.Context, id string) (*core.Book, error) {
	var book *core.Book

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeBookKey(core.NormalizeID(id)))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			book, err = storage.UnmarshalBook(val)
			return err
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return book, nil
}

// GetBookByTitle retrieves a book through the normalized-title index.
func (r *CatalogRepository) GetBookByTitle(ctx context.Context, title string) (*core.Book, error) {
	var id string

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeTitleKey(title))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return r.GetBook(ctx, id)
}

// AllBooks returns a snapshot of every book in the catalog.
func (r *CatalogRepository) AllBooks(ctx context.Context) ([]core.Book, error) {
	var books []core.Book

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(bookRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				book, err := storage.UnmarshalBook(val)
				if err != nil {
					return err
				}
				books = append(books, *book)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return books, nil
}

// Count returns the number of books in the catalog.
func (r *CatalogRepository) Count(ctx context.Context) (int, error) {
	count := 0

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(bookRecordPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)

	if err != nil {
		return 0, err
	}
	return count, nil
}

// normalizeBook canonicalizes the identifier and fills missing optional
// fields with explicit defaults.
func normalizeBook(book core.Book) core.Book {
	book.ID = core.NormalizeID(book.ID)
	book.Title = strings.TrimSpace(book.Title)
	if book.Author == "" {
		book.Author = "Unknown"
	}
	if book.Language == "" {
		book.Language = "en"
	}
	if book.Source == "" {
		book.Source = core.SourceLocal
	}
	return book
}
