// Package ai defines the interfaces for AI-backed services used by the
// matching pipeline: text embedding and book description generation.
// Concrete implementations live in subpackages (openai for real services,
// mock for tests).
package ai
