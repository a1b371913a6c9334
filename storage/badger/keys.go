package badger

import (
	"fmt"

	"github.com/poiesic/bookmatch/core"
)

// Key prefixes for different data types
const (
	bookRecordPrefix = "bookrec"
	bookTitlePrefix  = "booktit"
)

// makeBookKey generates a key for a book record by normalized ID.
func makeBookKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", bookRecordPrefix, id))
}

// makeTitleKey generates a key for the title index.
// Titles are normalized so lookup is case-insensitive.
func makeTitleKey(title string) []byte {
	return []byte(fmt.Sprintf("%s:%s", bookTitlePrefix, core.NormalizeTitle(title)))
}
