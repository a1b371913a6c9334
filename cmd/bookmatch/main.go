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


package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/bookmatch"
	"github.com/poiesic/bookmatch/ai"
	"github.com/poiesic/bookmatch/core"
	"github.com/poiesic/bookmatch/ingest"
	"github.com/poiesic/bookmatch/search"
)

func main() {
	// A missing .env file is fine; environment variables still apply.
	godotenv.Load()

	app := &cli.App{
		Name:  "bookmatch",
		Usage: "Book search and recommendation over a local catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the data directory",
				Value:   "./bookmatch_data",
				EnvVars: []string{"BOOKMATCH_DATA"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				EnvVars: []string{"BOOKMATCH_EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				EnvVars: []string{"BOOKMATCH_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "generator-host",
				Usage:   "Description generation service host URL",
				EnvVars: []string{"BOOKMATCH_GENERATOR_HOST"},
			},
			&cli.StringFlag{
				Name:    "generator-model",
				Usage:   "Description generation model name",
				EnvVars: []string{"BOOKMATCH_GENERATOR_MODEL"},
			},
			&cli.StringFlag{
				Name:    "api-token",
				Usage:   "Bearer token for the AI services",
				EnvVars: []string{"BOOKMATCH_API_TOKEN"},
			},
			&cli.Float64Flag{
				Name:    "temperature",
				Usage:   "Sampling temperature for description generation",
				Value:   0.7,
				EnvVars: []string{"BOOKMATCH_TEMPERATURE"},
			},
			&cli.StringFlag{
				Name:    "external-url",
				Usage:   "External catalog base URL for fallback lookups",
				EnvVars: []string{"BOOKMATCH_EXTERNAL_URL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add books from a JSON file to the catalog and index",
				ArgsUsage: "<books.json>",
				Action:    addCommand,
			},
			{
				Name:   "build-index",
				Usage:  "Rebuild the vector index from the catalog",
				Action: buildIndexCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "backfill",
						Usage: "Generate descriptions for books that have none",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent backfill workers",
						Value: ingest.DefaultPoolSize,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the catalog for a title",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of semantic recommendations",
						Value:   search.DefaultTopK,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Report catalog, index and cache state",
				Action: statsCommand,
			},
			{
				Name:   "cache-clear",
				Usage:  "Remove every cached description",
				Action: cacheClearCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func aiConfig(c *cli.Context) *ai.Config {
	var opts []ai.ConfigOption
	if host := c.String("embedding-host"); host != "" {
		opts = append(opts, ai.WithEmbeddingHost(host))
	}
	if host := c.String("generator-host"); host != "" {
		opts = append(opts, ai.WithGeneratorHost(host))
	}
	if model := c.String("embedding-model"); model != "" {
		opts = append(opts, ai.WithEmbeddingModel(model))
	}
	if model := c.String("generator-model"); model != "" {
		opts = append(opts, ai.WithGeneratorModel(model))
	}
	if token := c.String("api-token"); token != "" {
		opts = append(opts, ai.WithAPIToken(token))
	}
	opts = append(opts, ai.WithTemperature(c.Float64("temperature")))
	return ai.NewConfig(opts...)
}

func openService(c *cli.Context, extra ...bookmatch.ServiceOption) (*bookmatch.Service, error) {
	opts := []bookmatch.ServiceOption{
		bookmatch.WithAIConfig(aiConfig(c)),
	}
	if url := c.String("external-url"); url != "" {
		opts = append(opts, bookmatch.WithExternalCatalog(url))
	}
	return bookmatch.NewService(c.String("data"), append(opts, extra...)...)
}

func addCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one JSON file argument")
	}

	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}

	var books []core.Book
	if err := json.Unmarshal(data, &books); err != nil {
		return fmt.Errorf("parse books file: %w", err)
	}
	if len(books) == 0 {
		return fmt.Errorf("no books in %s", c.Args().First())
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	if err := service.AddBooks(c.Context, books...); err != nil {
		return err
	}

	fmt.Printf("Added %d books\n", len(books))
	return nil
}

func buildIndexCommand(c *cli.Context) error {
	service, err := openService(c, bookmatch.WithIngestOptions(
		ingest.WithBackfill(c.Bool("backfill")),
		ingest.WithPoolSize(c.Int("workers")),
	))
	if err != nil {
		return err
	}
	defer service.Close()

	if err := service.BuildIndex(c.Context); err != nil {
		return err
	}

	stats, err := service.Stats(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d books (dim %d)\n", stats.Index.Vectors, stats.Index.Dim)
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("expected a search query")
	}
	query := strings.Join(c.Args().Slice(), " ")

	service, err := openService(c, bookmatch.WithSearchOptions(
		search.WithTopK(c.Int("top-k")),
	))
	if err != nil {
		return err
	}
	defer service.Close()

	results, err := service.Search(c.Context, query)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No matches")
		return nil
	}

	for i, r := range results {
		label := string(r.MatchType)
		if r.IsRecommendation {
			label += fmt.Sprintf(" %.4f", r.Similarity)
		}
		fmt.Printf("%d: %s by %s [%s]\n", i+1, r.Book.Title, r.Book.Author, label)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	stats, err := service.Stats(c.Context)
	if err != nil {
		return err
	}

	fmt.Printf("Books:        %d\n", stats.Books)
	fmt.Printf("Vectors:      %d (dim %d)\n", stats.Index.Vectors, stats.Index.Dim)
	fmt.Printf("Index saved:  %v\n", stats.Index.IndexExists && stats.Index.MetaExists)
	fmt.Printf("Cached descriptions: %d\n", stats.Cache.Entries)
	return nil
}

func cacheClearCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	return service.Generator().ClearCache()
}
