package search

import (
	"github.com/poiesic/bookmatch/core"
	"github.com/poiesic/bookmatch/vecstore"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps during a tiered search.
type SearchMonitor interface {
	Start(query string)
	ExactHit(book *core.Book)
	FuzzyHit(book *core.Book, cer float64)
	AfterSemanticSearch(hits []vecstore.SearchHit)
	SemanticHit(book *core.Book, similarity float32)
	DuplicateDropped(bookID string)
	AfterExternalFallback(count int)
	Finish(results []core.MatchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                            {}
func (n *noopMonitor) ExactHit(_ *core.Book)                     {}
func (n *noopMonitor) FuzzyHit(_ *core.Book, _ float64)          {}
func (n *noopMonitor) AfterSemanticSearch(_ []vecstore.SearchHit) {}
func (n *noopMonitor) SemanticHit(_ *core.Book, _ float32)       {}
func (n *noopMonitor) DuplicateDropped(_ string)                 {}
func (n *noopMonitor) AfterExternalFallback(_ int)               {}
func (n *noopMonitor) Finish(_ []core.MatchResult)               {}
