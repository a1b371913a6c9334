package mock

import (
	"context"
	"fmt"
)

// DescriptionModel is a test double for ai.DescriptionModel.
type DescriptionModel struct {
	// GenerateFunc is called by GenerateDescription if set.
	// If nil, uses default deterministic behavior.
	GenerateFunc func(ctx context.Context, title string) (string, error)

	// Err, when set, is returned by every call. Takes precedence over
	// GenerateFunc and the default behavior.
	Err error

	callCount int
}

// NewDescriptionModel creates a mock description model with default
// deterministic behavior.
func NewDescriptionModel() *DescriptionModel {
	return &DescriptionModel{}
}

// GenerateDescription returns a deterministic description derived from the title.
func (m *DescriptionModel) GenerateDescription(ctx context.Context, title string) (string, error) {
	m.callCount++

	if m.Err != nil {
		return "", m.Err
	}
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, title)
	}

	return fmt.Sprintf("A narrative exploring the themes and characters of %s.", title), nil
}

// CallCount returns the number of times GenerateDescription was called.
func (m *DescriptionModel) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *DescriptionModel) Reset() {
	m.callCount = 0
	m.GenerateFunc = nil
	m.Err = nil
}
