// Package openai implements the ai interfaces against OpenAI-compatible
// HTTP APIs (OpenAI, Ollama, LocalAI, vLLM). It provides a text embedder
// and a book description model backed by langchaingo clients.
package openai
