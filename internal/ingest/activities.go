// Package ingest implements the Temporal activities that turn uploaded
// documents into searchable vector entries.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/ragpipe/ragpipe/internal/ai"
	"github.com/ragpipe/ragpipe/internal/objectstore"
	"github.com/ragpipe/ragpipe/internal/vectorstore"
)

// embedBatchSize bounds how many chunks one embedding call carries.
const embedBatchSize = 16

// Activities holds the document ingestion activities.
type Activities struct {
	objects  objectstore.Store
	vectors  *vectorstore.Manager
	embedder ai.Embedder
	poolSize int
}

// Option configures the activity set.
type Option func(*Activities)

// WithPoolSize sets the embedding worker pool size.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(a *Activities) {
		if size < 1 {
			size = 1
		}
		a.poolSize = size
	}
}

// NewActivities creates the ingestion activity set.
func NewActivities(objects objectstore.Store, vectors *vectorstore.Manager, embedder ai.Embedder, opts ...Option) (*Activities, error) {
	if objects == nil {
		return nil, errors.New("object store is required")
	}
	if vectors == nil {
		return nil, errors.New("vector store manager is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	a := &Activities{
		objects:  objects,
		vectors:  vectors,
		embedder: embedder,
		poolSize: poolSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// =============================================================================
// ACTIVITY 1: FetchDocument
// =============================================================================

// FetchDocumentRequest identifies the object to download.
type FetchDocumentRequest struct {
	Bucket     string `json:"bucket"`
	ObjectPath string `json:"objectPath"`
	DocID      string `json:"docId"`
}

// FetchDocumentResult points at the staged copy.
type FetchDocumentResult struct {
	StagingPath string `json:"stagingPath"`
	Size        int64  `json:"size"`
}

// FetchDocument downloads the uploaded object and stages it to a local file.
func (a *Activities) FetchDocument(ctx context.Context, req FetchDocumentRequest) (*FetchDocumentResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("fetching document", "docId", req.DocID, "bucket", req.Bucket, "object", req.ObjectPath)

	if req.Bucket == "" || req.ObjectPath == "" {
		return nil, temporal.NewNonRetryableApplicationError("bucket and objectPath are required", "INVALID_INPUT", nil)
	}

	data, err := a.objects.GetObject(ctx, req.Bucket, req.ObjectPath)
	if err != nil {
		var oerr *objectstore.Error
		if errors.As(err, &oerr) && !oerr.Retryable {
			return nil, temporal.NewNonRetryableApplicationError("object fetch failed", oerr.Code, err)
		}
		return nil, fmt.Errorf("failed to fetch object: %w", err)
	}

	path, err := stageBytes(data, fmt.Sprintf("ragpipe-doc-%s", req.DocID))
	if err != nil {
		return nil, err
	}

	logger.Info("document staged", "docId", req.DocID, "bytes", len(data))
	return &FetchDocumentResult{StagingPath: path, Size: int64(len(data))}, nil
}

// =============================================================================
// ACTIVITY 2: IndexDocument
// =============================================================================

// IndexDocumentRequest carries the staged document and its tenant scope.
type IndexDocumentRequest struct {
	DocID          string `json:"docId"`
	ObjectPath     string `json:"objectPath"`
	StagingPath    string `json:"stagingPath"`
	UserID         string `json:"userId,omitempty"`
	OrganizationID string `json:"organizationId"`
}

// IndexDocumentResult reports how many chunks were written.
type IndexDocumentResult struct {
	ChunkCount int `json:"chunkCount"`
}

// IndexDocument extracts text from the staged file, chunks it, embeds the
// chunks and upserts them into the organization's vector store.
func (a *Activities) IndexDocument(ctx context.Context, req IndexDocumentRequest) (*IndexDocumentResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("indexing document", "docId", req.DocID, "org", req.OrganizationID)

	if req.OrganizationID == "" {
		return nil, temporal.NewNonRetryableApplicationError("organizationId is required", "INVALID_INPUT", nil)
	}

	data, err := loadStaged(req.StagingPath)
	if err != nil {
		return nil, err
	}
	defer cleanupStaged(req.StagingPath)

	docType := docTypeOf(req.ObjectPath)
	text, err := extractText(data, docType)
	if err != nil {
		var uerr *UnsupportedDocTypeError
		if errors.As(err, &uerr) {
			return nil, temporal.NewNonRetryableApplicationError(uerr.Error(), "UNSUPPORTED_DOC_TYPE", err)
		}
		return nil, err
	}

	chunks := chunkText(text, 0, 0)
	if len(chunks) == 0 {
		logger.Info("document has no indexable text", "docId", req.DocID)
		return &IndexDocumentResult{ChunkCount: 0}, nil
	}

	embeddings, err := a.embedChunks(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}

	entries := make([]vectorstore.Entry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = vectorstore.Entry{
			UserID:      req.UserID,
			DocID:       req.DocID,
			ChunkIndex:  i,
			ContentText: chunk,
			Metadata: map[string]any{
				"object_path": req.ObjectPath,
				"doc_type":    docType,
			},
			Embedding: embeddings[i],
		}
	}

	// Replace any previous index of this document before writing.
	store := a.vectors.ForOrganization(req.OrganizationID)
	if err := store.DeleteDocument(req.DocID); err != nil {
		return nil, fmt.Errorf("failed to clear previous chunks: %w", err)
	}
	if err := store.Upsert(entries); err != nil {
		return nil, fmt.Errorf("failed to upsert chunks: %w", err)
	}

	logger.Info("document indexed", "docId", req.DocID, "chunks", len(chunks))
	return &IndexDocumentResult{ChunkCount: len(chunks)}, nil
}

// embedChunks runs embedding batches concurrently through a worker pool,
// preserving chunk order.
func (a *Activities) embedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	pool, err := ants.NewPool(a.poolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	embeddings := make([][]float32, len(chunks))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batchStart, batch := start, chunks[start:end]

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			mu.Lock()
			failed := firstErr != nil
			mu.Unlock()
			if failed {
				return
			}

			vectors, err := a.embedder.EmbedTexts(ctx, batch)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			for i, v := range vectors {
				embeddings[batchStart+i] = v
			}
		})
		if submitErr != nil {
			wg.Done()
			return nil, submitErr
		}
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return embeddings, nil
}
