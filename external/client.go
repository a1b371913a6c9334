package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/poiesic/bookmatch/core"
)

// DefaultLimit is the default number of documents requested per query.
const DefaultLimit = 10

const defaultTimeout = 10 * time.Second

// Client queries a remote OpenLibrary-compatible catalog.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limit      int
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		if httpClient != nil {
			c.httpClient = httpClient
		}
		return nil
	}
}

// WithLimit sets the number of documents requested per query.
// Default is DefaultLimit.
func WithLimit(limit int) Option {
	return func(c *Client) error {
		if limit > 0 {
			c.limit = limit
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewClient creates a client for the catalog at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limit:      DefaultLimit,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Search looks up books by title. It returns ErrCatalogUnavailable when the
// catalog cannot be reached, answers with a non-success status, or finds
// nothing.
func (c *Client) Search(ctx context.Context, query string) ([]core.Book, error) {
	endpoint := fmt.Sprintf("%s/search.json?title=%s&limit=%d",
		c.baseURL, url.QueryEscape(query), c.limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrCatalogUnavailable, resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	if len(parsed.Docs) == 0 {
		return nil, fmt.Errorf("%w: no documents for %q", ErrCatalogUnavailable, query)
	}

	c.logger.Debug("external catalog answered", "query", query, "numFound", parsed.NumFound)

	books := make([]core.Book, 0, len(parsed.Docs))
	for _, d := range parsed.Docs {
		books = append(books, mapDoc(d))
	}
	return books, nil
}

// mapDoc converts a catalog document into a Book with synthetic identity
// and explicit defaults for missing fields.
func mapDoc(d doc) core.Book {
	book := core.Book{
		Title:       strings.TrimSpace(d.Title),
		Description: string(d.FirstSentence),
		Source:      core.SourceExternal,
	}
	if book.Title == "" {
		book.Title = "Unknown Title"
	}

	if len(d.AuthorName) > 0 {
		book.Author = d.AuthorName[0]
	} else {
		book.Author = "Unknown"
	}

	if len(d.Language) > 0 {
		book.Language = d.Language[0]
	} else {
		book.Language = "en"
	}

	if len(d.Subject) > 0 {
		book.Genre = d.Subject[0]
	}

	if len(d.ISBN) > 0 {
		book.ID = "ext-" + d.ISBN[0]
	} else {
		book.ID = "ext-" + strings.ReplaceAll(strings.ToLower(book.Title), " ", "_")
	}

	return book
}
