package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/bookmatch/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// DescriptionModel implements ai.DescriptionModel using OpenAI-compatible
// chat APIs.
type DescriptionModel struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

// newDescriptionModel is an internal constructor that returns the concrete
// type. Used by Provider to manage the instance.
func newDescriptionModel(config *ai.Config) (*DescriptionModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for chat completion. Local
	// OpenAI-compatible services accept the default "none" token.
	client, err := openai.New(
		openai.WithBaseURL(config.GeneratorHost),
		openai.WithToken(config.APIToken),
		openai.WithModel(config.GeneratorModel),
	)
	if err != nil {
		return nil, err
	}

	return &DescriptionModel{
		client:      client,
		temperature: config.Temperature,
		logger:      slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewDescriptionModel creates a new description model using the provided
// configuration.
//
// Returns ai.DescriptionModel interface to enforce abstraction.
func NewDescriptionModel(config *ai.Config) (ai.DescriptionModel, error) {
	return newDescriptionModel(config)
}

// GenerateDescription produces a short book description for the given title.
// Returns ErrEmptyCompletion if the model returns no usable text, so callers
// can fall back to a templated description.
func (m *DescriptionModel) GenerateDescription(ctx context.Context, title string) (string, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(descriptionSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(fmt.Sprintf(descriptionPromptTemplate, title)),
			},
		},
	}

	response, err := m.client.GenerateContent(ctx, content, llms.WithTemperature(m.temperature))
	if err != nil {
		m.logger.Error("failed to generate description", "title", title, "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		m.logger.Warn("no choices returned from model", "title", title)
		return "", ErrEmptyCompletion
	}

	description := strings.TrimSpace(response.Choices[0].Content)
	if description == "" {
		m.logger.Warn("model returned empty description", "title", title)
		return "", ErrEmptyCompletion
	}

	m.logger.Debug("generated description", "title", title, "length", len(description))
	return description, nil
}
