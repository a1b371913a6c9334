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


package ingest

import "errors"

var (
	// ErrCatalogRequired is returned when a pipeline is created without a
	// catalog repository.
	ErrCatalogRequired = errors.New("catalog repository is required")

	// ErrStoreRequired is returned when a pipeline is created without a
	// vector store.
	ErrStoreRequired = errors.New("vector store is required")

	// ErrGeneratorRequired is returned when a pipeline is created without
	// a description generator.
	ErrGeneratorRequired = errors.New("description generator is required")

	// ErrEmptyCatalog is returned when an index build finds no books.
	ErrEmptyCatalog = errors.New("catalog holds no books")
)
