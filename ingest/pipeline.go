package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/bookmatch/core"
	"github.com/poiesic/bookmatch/describe"
	"github.com/poiesic/bookmatch/storage"
	"github.com/poiesic/bookmatch/vecstore"
)

// DefaultPoolSize is the default number of concurrent description
// backfill workers.
const DefaultPoolSize = 4

// VectorIndexer is the slice of the vector store the pipeline needs.
type VectorIndexer interface {
	Create(ctx context.Context, texts []string, meta []core.BookMeta) error
	Add(ctx context.Context, texts []string, meta []core.BookMeta) error
	Save() error
}

// Describer produces index text for books that lack a description.
type Describer interface {
	GenerateDescription(ctx context.Context, title string, useCache bool) (string, error)
}

// Pipeline moves books into the catalog and the vector index.
type Pipeline struct {
	catalog   storage.CatalogRepository
	store     VectorIndexer
	generator Describer
	pool      *ants.Pool
	backfill  bool
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of concurrent backfill workers.
// Default is DefaultPoolSize.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size <= 0 {
			return nil
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBackfill enables generating descriptions for books that have none
// during index builds. Without it such books are indexed from their
// title, author and genre alone.
func WithBackfill(enabled bool) Option {
	return func(p *Pipeline) error {
		p.backfill = enabled
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	catalog storage.CatalogRepository,
	store VectorIndexer,
	generator Describer,
	opts ...Option,
) (*Pipeline, error) {
	if catalog == nil {
		return nil, ErrCatalogRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	pool, err := ants.NewPool(DefaultPoolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		catalog:   catalog,
		store:     store,
		generator: generator,
		pool:      pool,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.pool.Release()
			return nil, err
		}
	}

	return p, nil
}

// Close releases the worker pool.
func (p *Pipeline) Close() {
	p.pool.Release()
}

// AddBooks stores books in the catalog and appends them to the vector
// index, then persists the index.
func (p *Pipeline) AddBooks(ctx context.Context, books ...core.Book) error {
	if len(books) == 0 {
		return nil
	}

	if err := p.catalog.AddBooks(ctx, books...); err != nil {
		return err
	}

	texts, meta := p.indexInputs(ctx, books)
	err := p.store.Add(ctx, texts, meta)
	if errors.Is(err, vecstore.ErrIndexNotLoaded) {
		// First ingest into an empty store starts the index.
		err = p.store.Create(ctx, texts, meta)
	}
	if err != nil {
		return err
	}

	p.logger.Info("books added", "count", len(books))
	return p.store.Save()
}

// BuildIndex rebuilds the vector index from every book in the catalog and
// persists it.
func (p *Pipeline) BuildIndex(ctx context.Context) error {
	books, err := p.catalog.AllBooks(ctx)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		return ErrEmptyCatalog
	}

	texts, meta := p.indexInputs(ctx, books)
	if err := p.store.Create(ctx, texts, meta); err != nil {
		return err
	}

	p.logger.Info("index built", "books", len(books))
	return p.store.Save()
}

// indexInputs derives the index text and metadata for each book.
// Books without a description are backfilled concurrently when enabled.
func (p *Pipeline) indexInputs(ctx context.Context, books []core.Book) ([]string, []core.BookMeta) {
	texts := make([]string, len(books))
	meta := make([]core.BookMeta, len(books))

	var wg sync.WaitGroup
	for i, book := range books {
		meta[i] = core.BookMeta{BookID: core.NormalizeID(book.ID)}

		if book.Description != "" {
			texts[i] = book.Description
			continue
		}
		if !p.backfill {
			texts[i] = describe.IndexDescription(book)
			continue
		}

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			description, err := p.generator.GenerateDescription(ctx, book.Title, true)
			if err != nil {
				p.logger.Warn("description backfill failed", "title", book.Title, "err", err)
				description = describe.IndexDescription(book)
			}
			texts[i] = description
		})
		if err != nil {
			// Pool rejection falls back to inline derivation.
			wg.Done()
			texts[i] = describe.IndexDescription(book)
		}
	}
	wg.Wait()

	return texts, meta
}
