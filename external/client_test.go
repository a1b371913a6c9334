package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/bookmatch/core"
)

func TestNewClient(t *testing.T) {
	t.Run("empty base URL", func(t *testing.T) {
		_, err := NewClient("")
		assert.ErrorIs(t, err, ErrBaseURLRequired)
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		c, err := NewClient("http://localhost:9999/")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9999", c.baseURL)
	})

	t.Run("default limit", func(t *testing.T) {
		c, err := NewClient("http://localhost:9999")
		require.NoError(t, err)
		assert.Equal(t, DefaultLimit, c.limit)
	})

	t.Run("limit option", func(t *testing.T) {
		c, err := NewClient("http://localhost:9999", WithLimit(3))
		require.NoError(t, err)
		assert.Equal(t, 3, c.limit)
	})
}

func TestClientSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "The Hobbit", r.URL.Query().Get("title"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"numFound": 1,
			"docs": [{
				"title": "The Hobbit",
				"author_name": ["J.R.R. Tolkien", "Someone Else"],
				"isbn": ["9780547928227"],
				"language": ["eng"],
				"subject": ["Fantasy", "Adventure"],
				"first_sentence": ["In a hole in the ground there lived a hobbit."]
			}]
		}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	books, err := client.Search(context.Background(), "The Hobbit")
	require.NoError(t, err)
	require.Len(t, books, 1)

	book := books[0]
	assert.Equal(t, "ext-9780547928227", book.ID)
	assert.Equal(t, "The Hobbit", book.Title)
	assert.Equal(t, "J.R.R. Tolkien", book.Author)
	assert.Equal(t, "Fantasy", book.Genre)
	assert.Equal(t, "eng", book.Language)
	assert.Equal(t, "In a hole in the ground there lived a hobbit.", book.Description)
	assert.Equal(t, core.SourceExternal, book.Source)
}

func TestClientSearchSyntheticIDFromTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"numFound": 1, "docs": [{"title": "A Wizard of Earthsea"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	books, err := client.Search(context.Background(), "earthsea")
	require.NoError(t, err)
	require.Len(t, books, 1)

	book := books[0]
	assert.Equal(t, "ext-a_wizard_of_earthsea", book.ID)
	assert.Equal(t, "Unknown", book.Author)
	assert.Equal(t, "en", book.Language)
}

func TestClientSearchFirstSentenceShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "plain string",
			body: `{"docs": [{"title": "T", "first_sentence": "Call me Ishmael."}]}`,
			want: "Call me Ishmael.",
		},
		{
			name: "list of strings",
			body: `{"docs": [{"title": "T", "first_sentence": ["It was a pleasure to burn."]}]}`,
			want: "It was a pleasure to burn.",
		},
		{
			name: "typed text object",
			body: `{"docs": [{"title": "T", "first_sentence": {"type": "/type/text", "value": "It was a bright cold day in April."}}]}`,
			want: "It was a bright cold day in April.",
		},
		{
			name: "missing",
			body: `{"docs": [{"title": "T"}]}`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient(server.URL)
			require.NoError(t, err)

			books, err := client.Search(context.Background(), "T")
			require.NoError(t, err)
			require.Len(t, books, 1)
			assert.Equal(t, tt.want, books[0].Description)
		})
	}
}

func TestClientSearchUnavailable(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client, err := NewClient(server.URL)
		require.NoError(t, err)

		_, err = client.Search(context.Background(), "anything")
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
	})

	t.Run("empty docs", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"numFound": 0, "docs": []}`))
		}))
		defer server.Close()

		client, err := NewClient(server.URL)
		require.NoError(t, err)

		_, err = client.Search(context.Background(), "nonexistent")
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer server.Close()

		client, err := NewClient(server.URL)
		require.NoError(t, err)

		_, err = client.Search(context.Background(), "anything")
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
	})

	t.Run("unreachable host", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		client, err := NewClient(server.URL)
		require.NoError(t, err)

		_, err = client.Search(context.Background(), "anything")
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
	})
}
