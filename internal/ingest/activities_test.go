package ingest

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/ragpipe/ragpipe/internal/objectstore"
	"github.com/ragpipe/ragpipe/internal/vectorstore"
)

// fakeObjectStore serves objects from a map.
type fakeObjectStore struct {
	objects map[string][]byte
	err     error
}

func (f *fakeObjectStore) Ping(ctx context.Context) error                  { return nil }
func (f *fakeObjectStore) EnsureBucket(ctx context.Context, b string) error { return nil }
func (f *fakeObjectStore) BucketExists(ctx context.Context, b string) (bool, error) {
	return true, nil
}
func (f *fakeObjectStore) ListBuckets(ctx context.Context) ([]objectstore.BucketInfo, error) {
	return nil, nil
}
func (f *fakeObjectStore) PresignedPutURL(ctx context.Context, b, k string, e time.Duration) (string, error) {
	return "", nil
}
func (f *fakeObjectStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, &objectstore.Error{Code: objectstore.CodeObjectNotFound, Err: errors.New("no such key")}
	}
	return data, nil
}

// fakeVectorStore records upserts and deletes.
type fakeVectorStore struct {
	mu      sync.Mutex
	entries []vectorstore.Entry
	deleted []string
}

func (f *fakeVectorStore) UpsertEntries(entries []vectorstore.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entries...)
	return nil
}
func (f *fakeVectorStore) Query(embedding []float32, filter vectorstore.QueryFilter, topK int) ([]vectorstore.SearchResult, error) {
	return nil, nil
}
func (f *fakeVectorStore) DeleteByDocument(organizationID, docID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, organizationID+"/"+docID)
	return nil
}
func (f *fakeVectorStore) CountByOrganization(organizationID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries), nil
}
func (f *fakeVectorStore) Close() error { return nil }

// fakeEmbedder returns fixed-size vectors.
type fakeEmbedder struct {
	calls int
	mu    sync.Mutex
	err   error
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 0.5, 0.5}
	}
	return out, nil
}

func newTestActivities(t *testing.T, objects *fakeObjectStore, vectors *fakeVectorStore, embedder *fakeEmbedder) *Activities {
	t.Helper()
	acts, err := NewActivities(objects, vectorstore.NewManager(vectors), embedder, WithPoolSize(2))
	require.NoError(t, err)
	return acts
}

func TestNewActivitiesValidation(t *testing.T) {
	_, err := NewActivities(nil, vectorstore.NewManager(&fakeVectorStore{}), &fakeEmbedder{})
	assert.Error(t, err)

	_, err = NewActivities(&fakeObjectStore{}, nil, &fakeEmbedder{})
	assert.Error(t, err)

	_, err = NewActivities(&fakeObjectStore{}, vectorstore.NewManager(&fakeVectorStore{}), nil)
	assert.Error(t, err)
}

func TestFetchDocument(t *testing.T) {
	objects := &fakeObjectStore{objects: map[string][]byte{
		"ragpipe-uploads/reports/q3.txt": []byte("quarterly results were strong"),
	}}
	acts := newTestActivities(t, objects, &fakeVectorStore{}, &fakeEmbedder{})

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(acts.FetchDocument)

	val, err := env.ExecuteActivity(acts.FetchDocument, FetchDocumentRequest{
		Bucket:     "ragpipe-uploads",
		ObjectPath: "reports/q3.txt",
		DocID:      "doc-1",
	})
	require.NoError(t, err)

	var result FetchDocumentResult
	require.NoError(t, val.Get(&result))
	defer os.Remove(result.StagingPath)

	assert.Equal(t, int64(29), result.Size)
	staged, err := os.ReadFile(result.StagingPath)
	require.NoError(t, err)
	assert.Equal(t, "quarterly results were strong", string(staged))
}

func TestFetchDocumentNotFoundIsNonRetryable(t *testing.T) {
	acts := newTestActivities(t, &fakeObjectStore{objects: map[string][]byte{}}, &fakeVectorStore{}, &fakeEmbedder{})

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(acts.FetchDocument)

	_, err := env.ExecuteActivity(acts.FetchDocument, FetchDocumentRequest{
		Bucket:     "ragpipe-uploads",
		ObjectPath: "missing.txt",
		DocID:      "doc-404",
	})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.NonRetryable())
	assert.Equal(t, objectstore.CodeObjectNotFound, appErr.Type())
}

func TestIndexDocument(t *testing.T) {
	staging, err := stageBytes([]byte("alpha beta gamma delta"), "test-doc")
	require.NoError(t, err)

	vectors := &fakeVectorStore{}
	embedder := &fakeEmbedder{}
	acts := newTestActivities(t, &fakeObjectStore{}, vectors, embedder)

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(acts.IndexDocument)

	val, err := env.ExecuteActivity(acts.IndexDocument, IndexDocumentRequest{
		DocID:          "doc-1",
		ObjectPath:     "reports/q3.txt",
		StagingPath:    staging,
		UserID:         "user-9",
		OrganizationID: "acme",
	})
	require.NoError(t, err)

	var result IndexDocumentResult
	require.NoError(t, val.Get(&result))
	assert.Equal(t, 1, result.ChunkCount)

	require.Len(t, vectors.entries, 1)
	entry := vectors.entries[0]
	assert.Equal(t, "acme", entry.OrganizationID)
	assert.Equal(t, "user-9", entry.UserID)
	assert.Equal(t, "doc-1", entry.DocID)
	assert.Equal(t, "alpha beta gamma delta", entry.ContentText)
	assert.Equal(t, "txt", entry.Metadata["doc_type"])

	// Stale chunks for the same document are cleared first.
	assert.Equal(t, []string{"acme/doc-1"}, vectors.deleted)

	// Staging file is cleaned up after indexing.
	_, statErr := os.Stat(staging)
	assert.True(t, os.IsNotExist(statErr))
}

func TestIndexDocumentUnsupportedType(t *testing.T) {
	staging, err := stageBytes([]byte{0x50, 0x4b, 0x03, 0x04}, "test-doc")
	require.NoError(t, err)

	acts := newTestActivities(t, &fakeObjectStore{}, &fakeVectorStore{}, &fakeEmbedder{})

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(acts.IndexDocument)

	_, err = env.ExecuteActivity(acts.IndexDocument, IndexDocumentRequest{
		DocID:          "doc-zip",
		ObjectPath:     "archive.zip",
		StagingPath:    staging,
		OrganizationID: "acme",
	})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.NonRetryable())
	assert.Equal(t, "UNSUPPORTED_DOC_TYPE", appErr.Type())
}

func TestIndexDocumentMissingOrganization(t *testing.T) {
	acts := newTestActivities(t, &fakeObjectStore{}, &fakeVectorStore{}, &fakeEmbedder{})

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(acts.IndexDocument)

	_, err := env.ExecuteActivity(acts.IndexDocument, IndexDocumentRequest{
		DocID:       "doc-1",
		StagingPath: "/tmp/whatever",
	})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.NonRetryable())
}

func TestEmbedChunksPreservesOrder(t *testing.T) {
	acts := newTestActivities(t, &fakeObjectStore{}, &fakeVectorStore{}, &fakeEmbedder{})

	chunks := make([]string, 50)
	for i := range chunks {
		// Distinct lengths so the fake embedding encodes the chunk identity.
		chunks[i] = string(make([]byte, i+1))
	}

	embeddings, err := acts.embedChunks(context.Background(), chunks)
	require.NoError(t, err)
	require.Len(t, embeddings, 50)
	for i, emb := range embeddings {
		assert.Equal(t, float32(i+1), emb[0], "embedding %d out of order", i)
	}
}

func TestEmbedChunksPropagatesError(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("model unavailable")}
	acts := newTestActivities(t, &fakeObjectStore{}, &fakeVectorStore{}, embedder)

	_, err := acts.embedChunks(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}
