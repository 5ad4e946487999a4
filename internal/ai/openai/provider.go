// Package openai implements ai.Embedder and ai.LLM over OpenAI-compatible
// APIs, including local Ollama servers.
package openai

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/ragpipe/ragpipe/internal/ai"
)

// Provider bundles the embedder and LLM clients built from one config.
type Provider struct {
	embedder *Embedder
	llm      *LLM
}

// NewProvider creates both services from the configuration.
func NewProvider(cfg *ai.Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	limiter := newLimiter(cfg.RequestsPerSecond)

	embedder, err := newEmbedder(cfg, limiter)
	if err != nil {
		return nil, err
	}
	llm, err := newLLM(cfg, limiter)
	if err != nil {
		return nil, err
	}
	return &Provider{embedder: embedder, llm: llm}, nil
}

// Embedder returns the embedding service.
func (p *Provider) Embedder() ai.Embedder { return p.embedder }

// LLM returns the completion service.
func (p *Provider) LLM() ai.LLM { return p.llm }

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// =============================================================================
// EMBEDDER
// =============================================================================

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	limiter  *rate.Limiter
	logger   *slog.Logger
}

func newEmbedder(cfg *ai.Config, limiter *rate.Limiter) (*Embedder, error) {
	// Use "none" as token for local services that don't require auth.
	client, err := openai.New(
		openai.WithBaseURL(cfg.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		limiter:  limiter,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// EmbedText generates an embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		e.logger.Warn("embedder returned empty result")
		return []float32{}, nil
	}
	return vectors[0], nil
}

// EmbedTexts generates embeddings for multiple texts in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	e.logger.Debug("generating embeddings", "count", len(texts))
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	return vectors, nil
}

// =============================================================================
// LLM
// =============================================================================

// LLM implements ai.LLM using OpenAI-compatible chat APIs.
type LLM struct {
	client  llms.Model
	limiter *rate.Limiter
	logger  *slog.Logger
}

func newLLM(cfg *ai.Config, limiter *rate.Limiter) (*LLM, error) {
	client, err := openai.New(
		openai.WithBaseURL(cfg.LLMHost),
		openai.WithToken("none"),
		openai.WithModel(cfg.LLMModel),
	)
	if err != nil {
		return nil, err
	}

	return &LLM{
		client:  client,
		limiter: limiter,
		logger:  slog.Default().With("component", "openai-llm"),
	}, nil
}

// Complete sends a prompt and returns the model's reply text.
func (l *LLM) Complete(ctx context.Context, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	response, err := l.client.GenerateContent(ctx, content, llms.WithTemperature(0.3))
	if err != nil {
		l.logger.Error("failed to generate completion", "err", err)
		return "", err
	}
	if len(response.Choices) < 1 {
		return "", errors.New("no choices returned from model")
	}
	return strings.TrimSpace(response.Choices[0].Content), nil
}
