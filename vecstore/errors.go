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


package vecstore

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexNotLoaded indicates an operation that needs an index before
	// one was created or loaded. Recoverable by building the index.
	ErrIndexNotLoaded = errors.New("no index loaded")

	// ErrLengthMismatch indicates texts and metadata of different lengths.
	ErrLengthMismatch = errors.New("texts and metadata must have same length")

	// ErrDimensionMismatch indicates an embedding whose dimension does not
	// match the stored index. Fatal for the semantic tier: it means a
	// model or version mismatch.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCorruptIndex indicates the index file and metadata sidecar
	// disagree or cannot be decoded.
	ErrCorruptIndex = errors.New("index and metadata out of sync")
)
