// Package ai defines the embedding and completion services used by the
// indexing and query pipelines.
package ai

import (
	"context"
	"errors"
	"strings"
)

// Embedder generates vector embeddings from text.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedText generates an embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embeddings for multiple texts in a batch,
	// in the same order as the input.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// LLM produces text completions.
// Implementations must be safe for concurrent use.
type LLM interface {
	// Complete sends a prompt and returns the model's reply.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds connection settings for AI services. Both hosts accept any
// OpenAI-compatible endpoint; a local Ollama server's /v1 API works as-is.
type Config struct {
	// EmbeddingHost is the base URL of the embedding service,
	// e.g. "http://localhost:11434/v1".
	EmbeddingHost string

	// EmbeddingModel is the embedding model identifier.
	EmbeddingModel string

	// LLMHost is the base URL of the completion service.
	LLMHost string

	// LLMModel is the completion model identifier.
	LLMModel string

	// RequestsPerSecond caps outbound calls to the services.
	// Zero means no limit.
	RequestsPerSecond float64
}

// Validate checks that required fields are set.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("ai config is required")
	}
	if strings.TrimSpace(c.EmbeddingHost) == "" {
		return errors.New("embedding host is required")
	}
	if strings.TrimSpace(c.EmbeddingModel) == "" {
		return errors.New("embedding model is required")
	}
	if strings.TrimSpace(c.LLMHost) == "" {
		return errors.New("llm host is required")
	}
	if strings.TrimSpace(c.LLMModel) == "" {
		return errors.New("llm model is required")
	}
	return nil
}
