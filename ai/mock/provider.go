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


package mock

import "github.com/poiesic/bookmatch/ai"

// Provider is a test double for ai.Provider.
// It aggregates mock embedder and description model instances.
type Provider struct {
	embedder  *Embedder
	generator *DescriptionModel
}

// NewProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetEmbedder()/GetDescriptionModel() to access concrete types for test
// assertions.
func NewProvider() ai.Provider {
	return &Provider{
		embedder:  NewEmbedder(),
		generator: NewDescriptionModel(),
	}
}

// NewProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewProviderWithServices(embedder *Embedder, generator *DescriptionModel) ai.Provider {
	return &Provider{
		embedder:  embedder,
		generator: generator,
	}
}

// Embedder returns the mock embedder.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// DescriptionModel returns the mock description model.
func (p *Provider) DescriptionModel() ai.DescriptionModel {
	return p.generator
}

// Close is a no-op for mock provider.
func (p *Provider) Close() error {
	return nil
}

// GetEmbedder returns the underlying mock embedder for test assertions.
func (p *Provider) GetEmbedder() *Embedder {
	return p.embedder
}

// GetDescriptionModel returns the underlying mock model for test assertions.
func (p *Provider) GetDescriptionModel() *DescriptionModel {
	return p.generator
}
