package describe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/poiesic/bookmatch/ai"
	"github.com/poiesic/bookmatch/core"
)

// Generator produces book descriptions with a persistent cache.
// Cache entries are append-only; the file is rewritten in full on every new
// entry and removed only by ClearCache.
type Generator struct {
	model     ai.DescriptionModel
	cachePath string
	logger    *slog.Logger

	mu    sync.RWMutex
	cache map[string]string
}

// Option configures a Generator.
type Option func(*Generator) error

// WithModel sets the generation backend. Without a model every miss is
// served by the templated fallback description.
func WithModel(model ai.DescriptionModel) Option {
	return func(g *Generator) error {
		g.model = model
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
		return nil
	}
}

// NewGenerator creates a description generator backed by the JSON cache file
// at cachePath. An existing cache is loaded eagerly; a missing file is not an
// error. An unreadable parent directory is, since the cache could never be
// persisted.
func NewGenerator(cachePath string, opts ...Option) (*Generator, error) {
	if cachePath == "" {
		return nil, ErrCachePathRequired
	}

	g := &Generator{
		cachePath: cachePath,
		logger:    slog.Default().With("component", "describe"),
		cache:     make(map[string]string),
	}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	if err := g.loadCache(); err != nil {
		return nil, err
	}

	g.logger.Debug("description cache loaded", "entries", len(g.cache), "path", cachePath)
	return g, nil
}

// CacheKey returns the cache key for a title: a content hash of the
// lower-cased, trimmed title.
func CacheKey(title string) string {
	return core.HashContent(core.NormalizeTitle(title))
}

// GenerateDescription returns a description for the given book title.
// Cached descriptions are returned unchanged. On a miss the configured
// backend is asked; if it is absent the templated fallback is cached and
// returned. A backend failure also falls back, but is not cached, so a later
// call can retry generation. The returned error is always nil today; it is
// kept in the signature for cache-store failures surfaced in the future.
func (g *Generator) GenerateDescription(ctx context.Context, title string, useCache bool) (string, error) {
	key := CacheKey(title)

	if useCache {
		g.mu.RLock()
		cached, ok := g.cache[key]
		g.mu.RUnlock()
		if ok {
			g.logger.Debug("cache hit", "title", title)
			return cached, nil
		}
	}

	if g.model == nil {
		g.logger.Debug("no generation backend, using fallback", "title", title)
		description := FallbackDescription(title)
		g.store(key, description)
		return description, nil
	}

	description, err := g.model.GenerateDescription(ctx, title)
	if err != nil {
		g.logger.Warn("generation backend failed, using fallback", "title", title, "err", err)
		return FallbackDescription(title), nil
	}

	g.store(key, description)
	return description, nil
}

// GenerateBatch generates descriptions for multiple titles, returning a map
// from title to description.
func (g *Generator) GenerateBatch(ctx context.Context, titles []string, useCache bool) (map[string]string, error) {
	results := make(map[string]string, len(titles))
	for _, title := range titles {
		description, err := g.GenerateDescription(ctx, title, useCache)
		if err != nil {
			return nil, err
		}
		results[title] = description
	}
	return results, nil
}

// FallbackDescription builds a deterministic description from a title alone.
// Used when no generation backend is available.
func FallbackDescription(title string) string {
	return fmt.Sprintf("A compelling story about %s. This book explores themes of adventure, "+
		"personal growth, and the human condition through an engaging narrative.", title)
}

// IndexDescription builds a description for a book that has none, from the
// fields available at index-build time.
func IndexDescription(book core.Book) string {
	title := strings.TrimSpace(book.Title)
	if title == "" {
		title = "Unknown Title"
	}
	author := strings.TrimSpace(book.Author)
	if author == "" {
		author = "Unknown Author"
	}

	description := fmt.Sprintf("%s by %s.", title, author)
	if genre := strings.TrimSpace(book.Genre); genre != "" {
		description += fmt.Sprintf(" Genre: %s.", genre)
	}
	return description
}

// ClearCache removes every cached entry and deletes the cache file.
func (g *Generator) ClearCache() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cache = make(map[string]string)
	if err := os.Remove(g.cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cache file: %w", err)
	}
	g.logger.Info("description cache cleared", "path", g.cachePath)
	return nil
}

// CacheStats describes the state of the description cache.
type CacheStats struct {
	Entries    int
	Path       string
	FileExists bool
}

// Stats returns statistics about the cache.
func (g *Generator) Stats() CacheStats {
	g.mu.RLock()
	entries := len(g.cache)
	g.mu.RUnlock()

	_, statErr := os.Stat(g.cachePath)
	return CacheStats{
		Entries:    entries,
		Path:       g.cachePath,
		FileExists: statErr == nil,
	}
}

// store records a new entry and persists the whole cache. Persistence
// failures are logged, not returned: the in-memory entry still serves the
// current process.
func (g *Generator) store(key, description string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cache[key] = description
	if err := g.saveCacheLocked(); err != nil {
		g.logger.Warn("could not persist description cache", "err", err)
	}
}

func (g *Generator) loadCache() error {
	data, err := os.ReadFile(g.cachePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cache file: %w", err)
	}

	if err := json.Unmarshal(data, &g.cache); err != nil {
		// A corrupt cache is regenerable data; start fresh rather than fail.
		g.logger.Warn("could not parse description cache, starting empty", "err", err)
		g.cache = make(map[string]string)
	}
	return nil
}

// saveCacheLocked rewrites the cache file atomically (write-temp-then-rename).
// Callers must hold mu.
func (g *Generator) saveCacheLocked() error {
	data, err := json.MarshalIndent(g.cache, "", "  ")
	if err != nil {
		return err
	}

	tmp := g.cachePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, g.cachePath)
}
