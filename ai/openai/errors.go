package openai

import "errors"

var (
	// ErrEmptyCompletion is returned when the model produces no usable text.
	ErrEmptyCompletion = errors.New("model returned empty completion")
)
