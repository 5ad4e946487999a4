// Package query answers natural language questions by routing them to a
// vector retrieval branch, an SQL branch, or both, and synthesizing a final
// answer with an LLM.
package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ragpipe/ragpipe/internal/ai"
	"github.com/ragpipe/ragpipe/internal/vectorstore"
)

const (
	// TargetDocstore routes the question to vector retrieval over
	// indexed documents.
	TargetDocstore = "docstore"
	// TargetSQL routes the question through NL-to-SQL generation and
	// execution against the relational database.
	TargetSQL = "sql"
)

const defaultTopK = 10

// ValidationError marks request problems the caller can fix, as opposed to
// pipeline failures.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// ErrNoTargets is returned when a request names no query targets.
var ErrNoTargets = validationErrorf("at least one query target is required")

// Request is one question scoped to a tenant.
type Request struct {
	Query          string
	Targets        []string
	OrganizationID string
	UserID         string
}

// Result carries the synthesized answer and the documents that informed it.
type Result struct {
	Answer  string
	Sources []string
}

// Pipeline wires the retrieval branches and the answering LLM together.
type Pipeline struct {
	embedder ai.Embedder
	llm      ai.LLM
	vectors  *vectorstore.Manager
	db       *sql.DB
	schema   string
	topK     int
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTopK sets how many chunks the docstore branch retrieves.
func WithTopK(k int) Option {
	return func(p *Pipeline) {
		if k > 0 {
			p.topK = k
		}
	}
}

// WithSQLBranch enables the sql target using db and a schema description
// the generator prompts with.
func WithSQLBranch(db *sql.DB, schema string) Option {
	return func(p *Pipeline) {
		p.db = db
		p.schema = schema
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline creates a query pipeline.
func NewPipeline(embedder ai.Embedder, llm ai.LLM, vectors *vectorstore.Manager, opts ...Option) (*Pipeline, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if llm == nil {
		return nil, errors.New("llm is required")
	}
	if vectors == nil {
		return nil, errors.New("vector store manager is required")
	}

	p := &Pipeline{
		embedder: embedder,
		llm:      llm,
		vectors:  vectors,
		topK:     defaultTopK,
		logger:   slog.Default().With("component", "query-pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run routes the question to the requested targets, joins the retrieved
// context and asks the LLM for an answer.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, validationErrorf("query text is required")
	}
	if len(req.Targets) == 0 {
		return nil, ErrNoTargets
	}

	wantDocstore, wantSQL := false, false
	for _, target := range req.Targets {
		switch target {
		case TargetDocstore:
			wantDocstore = true
		case TargetSQL:
			wantSQL = true
		default:
			return nil, validationErrorf("unknown query target %q", target)
		}
	}
	if wantSQL && p.db == nil {
		return nil, validationErrorf("sql target is not configured")
	}

	var (
		contextDocs []string
		sources     []string
	)

	if wantDocstore {
		docs, docSources, err := p.retrieve(ctx, req)
		if err != nil {
			return nil, err
		}
		contextDocs = append(contextDocs, docs...)
		sources = append(sources, docSources...)
	}

	if wantSQL {
		doc, err := p.runSQLBranch(ctx, req.Query)
		if err != nil {
			return nil, err
		}
		contextDocs = append(contextDocs, doc)
	}

	prompt := buildAnswerPrompt(req.Query, contextDocs)
	answer, err := p.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}

	p.logger.Info("query answered",
		"org", req.OrganizationID,
		"targets", req.Targets,
		"contextDocs", len(contextDocs))

	return &Result{Answer: strings.TrimSpace(answer), Sources: sources}, nil
}

// retrieve embeds the question and pulls the closest chunks from the
// organization's store.
func (p *Pipeline) retrieve(ctx context.Context, req Request) ([]string, []string, error) {
	if req.OrganizationID == "" {
		return nil, nil, validationErrorf("docstore target requires an organization")
	}

	embedding, err := p.embedder.EmbedText(ctx, req.Query)
	if err != nil {
		return nil, nil, fmt.Errorf("query embedding failed: %w", err)
	}

	store := p.vectors.ForOrganization(req.OrganizationID)
	results, err := store.Query(embedding, req.UserID, p.topK)
	if err != nil {
		return nil, nil, fmt.Errorf("retrieval failed: %w", err)
	}

	docs := make([]string, 0, len(results))
	seen := make(map[string]bool)
	var sources []string
	for _, r := range results {
		docs = append(docs, r.ContentText)
		if !seen[r.DocID] {
			seen[r.DocID] = true
			sources = append(sources, r.DocID)
		}
	}
	return docs, sources, nil
}

func (p *Pipeline) runSQLBranch(ctx context.Context, question string) (string, error) {
	stmt, err := generateSQL(ctx, p.llm, p.schema, question)
	if err != nil {
		return "", err
	}
	p.logger.Debug("generated sql", "statement", stmt)
	return executeSQL(ctx, p.db, stmt)
}

func buildAnswerPrompt(question string, docs []string) string {
	var sb strings.Builder
	sb.WriteString("Based on the following information, please answer the question:\n\n")
	sb.WriteString("Context:\n")
	for _, doc := range docs {
		sb.WriteString(doc)
		sb.WriteString("\n")
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer:\n")
	return sb.String()
}
