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


package core

import (
	"fmt"
	"strings"
)

// ValidateBook validates a Book according to domain rules.
//
// Validation rules:
//   - ID must not be empty after normalization
//   - Title must not be empty
//
// NOT validated (filled with defaults at the ingestion boundary):
//   - Author, Genre, Description, Language, Source
func ValidateBook(book *Book) error {
	if book == nil {
		return fmt.Errorf("%w: book is nil", ErrInvalidBook)
	}

	if NormalizeID(book.ID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidBook, ErrEmptyBookID)
	}

	if strings.TrimSpace(book.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidBook, ErrEmptyBookTitle)
	}

	return nil
}

// NormalizeTitle lowercases and trims a title for matching and cache keys.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// NormalizeID canonicalizes a book identifier. Upstream exports coerce
// numeric ISBNs through floating point, leaving a trailing ".0" on the
// string form; that artifact is repaired here, once, at ingestion.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)

	whole, frac, found := strings.Cut(id, ".")
	if !found || whole == "" || frac == "" {
		return id
	}
	if strings.Trim(frac, "0") != "" {
		return id
	}
	for _, r := range whole {
		if r < '0' || r > '9' {
			return id
		}
	}
	return whole
}
