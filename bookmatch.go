// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package bookmatch

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/bookmatch/ai"
	"github.com/poiesic/bookmatch/ai/openai"
	"github.com/poiesic/bookmatch/core"
	"github.com/poiesic/bookmatch/describe"
	"github.com/poiesic/bookmatch/external"
	"github.com/poiesic/bookmatch/ingest"
	"github.com/poiesic/bookmatch/search"
	"github.com/poiesic/bookmatch/storage"
	"github.com/poiesic/bookmatch/storage/badger"
	"github.com/poiesic/bookmatch/vecstore"
)

// Service wires the catalog, description cache, vector index and search
// pipeline over a single data directory.
type Service struct {
	backend   *badger.Backend
	catalog   storage.CatalogRepository
	provider  ai.Provider
	generator *describe.Generator
	store     *vecstore.Store
	logger    *slog.Logger

	searchOpts []search.Option
	ingestOpts []ingest.Option
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig    *ai.Config
	provider    ai.Provider
	externalURL string
	searchOpts  []search.Option
	ingestOpts  []ingest.Option
	logger      *slog.Logger
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(config *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider supplies a pre-built AI provider instead of constructing one
// from the configuration. The service takes ownership and closes it.
func WithProvider(provider ai.Provider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithExternalCatalog enables the external catalog fallback at the given
// base URL.
func WithExternalCatalog(baseURL string) ServiceOption {
	return func(o *serviceOptions) {
		o.externalURL = baseURL
	}
}

// WithSearchOptions forwards options to the searcher.
func WithSearchOptions(opts ...search.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.searchOpts = append(o.searchOpts, opts...)
	}
}

// WithIngestOptions forwards options to ingestion pipelines.
func WithIngestOptions(opts ...ingest.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.ingestOpts = append(o.ingestOpts, opts...)
	}
}

// WithServiceLogger sets a custom logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewService opens (or initializes) a service rooted at dataDir.
// The catalog lives under dataDir/catalog, the description cache at
// dataDir/descriptions.json and the vector index under dataDir/vectors.
func NewService(dataDir string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filepath.Join(dataDir, "catalog"), false)
	if err != nil {
		return nil, err
	}

	catalog, err := badger.NewCatalogRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			catalog.Close()
			backend.Close()
			return nil, err
		}
	}

	generator, err := describe.NewGenerator(
		filepath.Join(dataDir, "descriptions.json"),
		describe.WithModel(provider.DescriptionModel()),
		describe.WithLogger(options.logger),
	)
	if err != nil {
		provider.Close()
		catalog.Close()
		backend.Close()
		return nil, err
	}

	store, err := vecstore.NewStore(
		filepath.Join(dataDir, "vectors"),
		provider.Embedder(),
		vecstore.WithLogger(options.logger),
	)
	if err != nil {
		provider.Close()
		catalog.Close()
		backend.Close()
		return nil, err
	}

	// A missing index is a fresh install; a corrupt one is reported but not
	// fatal, since a rebuild recreates it.
	if loaded, err := store.Load(); err != nil {
		options.logger.Warn("could not load vector index, starting empty", "err", err)
	} else if loaded {
		options.logger.Info("vector index loaded", "vectors", store.Len())
	}

	searchOpts := append([]search.Option{search.WithLogger(options.logger)}, options.searchOpts...)
	if options.externalURL != "" {
		client, err := external.NewClient(options.externalURL, external.WithLogger(options.logger))
		if err != nil {
			provider.Close()
			catalog.Close()
			backend.Close()
			return nil, err
		}
		searchOpts = append(searchOpts, search.WithExternalSource(client))
	}

	ingestOpts := append([]ingest.Option{ingest.WithLogger(options.logger)}, options.ingestOpts...)

	return &Service{
		backend:    backend,
		catalog:    catalog,
		provider:   provider,
		generator:  generator,
		store:      store,
		logger:     options.logger,
		searchOpts: searchOpts,
		ingestOpts: ingestOpts,
	}, nil
}

// Close releases the AI provider and the storage backend.
func (s *Service) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	if err := s.catalog.Close(); err != nil {
		s.logger.Error("error closing catalog repository", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Catalog exposes the catalog repository.
func (s *Service) Catalog() storage.CatalogRepository {
	return s.catalog
}

// VectorStore exposes the vector store.
func (s *Service) VectorStore() *vecstore.Store {
	return s.store
}

// Generator exposes the description generator.
func (s *Service) Generator() *describe.Generator {
	return s.generator
}

// NewSearcher creates a searcher over the service's components.
func (s *Service) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(s.catalog, s.store, s.generator,
		append(s.searchOpts, opts...)...)
}

// NewPipeline creates an ingestion pipeline over the service's components.
// The caller must Close the pipeline when done.
func (s *Service) NewPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(s.catalog, s.store, s.generator,
		append(s.ingestOpts, opts...)...)
}

// Search runs the tiered pipeline for a single query.
func (s *Service) Search(ctx context.Context, query string) ([]core.MatchResult, error) {
	searcher, err := s.NewSearcher()
	if err != nil {
		return nil, err
	}
	return searcher.Search(ctx, query)
}

// AddBooks ingests books into the catalog and the vector index.
func (s *Service) AddBooks(ctx context.Context, books ...core.Book) error {
	pipeline, err := s.NewPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Close()
	return pipeline.AddBooks(ctx, books...)
}

// BuildIndex rebuilds the vector index from the catalog.
func (s *Service) BuildIndex(ctx context.Context) error {
	pipeline, err := s.NewPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Close()
	return pipeline.BuildIndex(ctx)
}

// Stats describes the state of the service's stores.
type Stats struct {
	Books int
	Index vecstore.Stats
	Cache describe.CacheStats
}

// Stats reports the catalog size together with index and cache state.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	count, err := s.catalog.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Books: count,
		Index: s.store.Stats(),
		Cache: s.generator.Stats(),
	}, nil
}
