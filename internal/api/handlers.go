// Package api exposes the HTTP surface of the document pipeline: upload URL
// generation, index dispatch, querying, bucket management and tenant stats.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ragpipe/ragpipe/internal/auth"
	"github.com/ragpipe/ragpipe/internal/config"
	"github.com/ragpipe/ragpipe/internal/database"
	"github.com/ragpipe/ragpipe/internal/objectstore"
	"github.com/ragpipe/ragpipe/internal/query"
	"github.com/ragpipe/ragpipe/internal/tasks"
	"github.com/ragpipe/ragpipe/internal/vectorstore"
)

// QueryRunner answers natural language questions.
type QueryRunner interface {
	Run(ctx context.Context, req query.Request) (*query.Result, error)
}

// Registry records documents and their ingestion runs.
type Registry interface {
	UpsertDocument(ctx context.Context, doc *database.Document) error
	GetDocument(ctx context.Context, id string) (*database.Document, error)
	CreateRun(ctx context.Context, docID, organizationID string) (*database.IngestionRun, error)
	GetRun(ctx context.Context, id string) (*database.IngestionRun, error)
}

// Handlers bundles the route implementations and their dependencies.
type Handlers struct {
	cfg        *config.Config
	objects    objectstore.Store
	vectors    *vectorstore.Manager
	registry   Registry
	dispatcher tasks.Dispatcher
	queries    QueryRunner
	logger     *slog.Logger
}

// NewHandlers wires the API handlers.
func NewHandlers(cfg *config.Config, objects objectstore.Store, vectors *vectorstore.Manager, registry Registry, dispatcher tasks.Dispatcher, queries QueryRunner) *Handlers {
	return &Handlers{
		cfg:        cfg,
		objects:    objects,
		vectors:    vectors,
		registry:   registry,
		dispatcher: dispatcher,
		queries:    queries,
		logger:     slog.Default().With("component", "api"),
	}
}

// Routes registers all handlers on a fresh mux, wrapped in auth middleware.
func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("POST /api/generate-upload-url", h.GenerateUploadURL)
	mux.HandleFunc("POST /api/index-doc", h.IndexDoc)
	mux.HandleFunc("POST /api/query", h.Query)
	mux.HandleFunc("POST /api/create-bucket", h.CreateBucket)
	mux.HandleFunc("GET /api/buckets", h.ListBuckets)
	mux.HandleFunc("GET /api/organizations/stats", h.OrganizationStats)
	mux.HandleFunc("GET /api/runs/{id}", h.GetRun)
	return auth.Middleware(h.cfg)(mux)
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// GenerateUploadURL mints a document ID and a pre-signed PUT URL for it.
func (h *Handlers) GenerateUploadURL(w http.ResponseWriter, r *http.Request) {
	caller := auth.FromContext(r.Context())
	if caller.OrganizationID == "" {
		writeError(w, http.StatusBadRequest, "X-Organization-Id header is required")
		return
	}

	var req GenerateUploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DocType == "" {
		writeError(w, http.StatusBadRequest, "doc_type is required")
		return
	}

	docID := uuid.New().String()
	objectPath := fmt.Sprintf("%s/%s/%s.%s", caller.OrganizationID, caller.UserID, docID, req.DocType)

	expiry := time.Duration(h.cfg.Minio.URLExpiryMinute) * time.Minute
	uploadURL, err := h.objects.PresignedPutURL(r.Context(), h.cfg.Minio.Bucket, objectPath, expiry)
	if err != nil {
		h.logger.Error("presign failed", "error", err, "org", caller.OrganizationID)
		writeError(w, http.StatusInternalServerError, "failed to generate upload url")
		return
	}

	doc := &database.Document{
		ID:             docID,
		OrganizationID: caller.OrganizationID,
		UserID:         caller.UserID,
		DocType:        req.DocType,
		ObjectPath:     objectPath,
	}
	if err := h.registry.UpsertDocument(r.Context(), doc); err != nil {
		h.logger.Error("document registration failed", "error", err, "docId", docID)
		writeError(w, http.StatusInternalServerError, "failed to register document")
		return
	}

	writeJSON(w, http.StatusOK, GenerateUploadURLResponse{
		DocID:      docID,
		UploadURL:  uploadURL,
		ObjectPath: objectPath,
	})
}

// IndexDoc records an ingestion run and dispatches the indexing workflow.
func (h *Handlers) IndexDoc(w http.ResponseWriter, r *http.Request) {
	caller := auth.FromContext(r.Context())
	if caller.OrganizationID == "" {
		writeError(w, http.StatusBadRequest, "X-Organization-Id header is required")
		return
	}

	var req IndexDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DocID == "" || req.ObjectPath == "" {
		writeError(w, http.StatusBadRequest, "doc_id and object_path are required")
		return
	}

	doc, err := h.registry.GetDocument(r.Context(), req.DocID)
	if err != nil {
		h.logger.Error("document lookup failed", "error", err, "docId", req.DocID)
		writeError(w, http.StatusInternalServerError, "failed to load document")
		return
	}
	if doc == nil || doc.OrganizationID != caller.OrganizationID {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	run, err := h.registry.CreateRun(r.Context(), req.DocID, caller.OrganizationID)
	if err != nil {
		h.logger.Error("run creation failed", "error", err, "docId", req.DocID)
		writeError(w, http.StatusInternalServerError, "failed to record ingestion run")
		return
	}

	input := tasks.IndexDocumentInput{
		DocID:          req.DocID,
		ObjectPath:     req.ObjectPath,
		Bucket:         h.cfg.Minio.Bucket,
		UserID:         caller.UserID,
		OrganizationID: caller.OrganizationID,
		RunID:          run.ID,
	}
	if err := h.dispatcher.Dispatch(r.Context(), tasks.TaskIndexDocument, input); err != nil {
		h.logger.Error("dispatch failed", "error", err, "docId", req.DocID, "runId", run.ID)
		writeError(w, http.StatusInternalServerError, "failed to dispatch indexing")
		return
	}

	writeJSON(w, http.StatusOK, IndexDocResponse{
		DocID:  req.DocID,
		RunID:  run.ID,
		Status: "Indexing dispatched",
	})
}

// Query runs a question through the query pipeline.
func (h *Handlers) Query(w http.ResponseWriter, r *http.Request) {
	caller := auth.FromContext(r.Context())

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if len(req.Targets) == 0 {
		writeError(w, http.StatusBadRequest, "at least one target is required")
		return
	}

	result, err := h.queries.Run(r.Context(), query.Request{
		Query:          req.Query,
		Targets:        req.Targets,
		OrganizationID: caller.OrganizationID,
		UserID:         caller.UserID,
	})
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("query failed", "error", err, "org", caller.OrganizationID)
		writeError(w, http.StatusBadGateway, "query execution failed")
		return
	}

	writeJSON(w, http.StatusOK, QueryResponse{Answer: result.Answer, Sources: result.Sources})
}

// CreateBucket provisions the organization's bucket.
func (h *Handlers) CreateBucket(w http.ResponseWriter, r *http.Request) {
	caller := auth.FromContext(r.Context())
	if caller.OrganizationID == "" {
		writeError(w, http.StatusBadRequest, "X-Organization-Id header is required")
		return
	}

	bucketName, err := objectstore.OrganizationBucketName(h.cfg.Tenancy.OrganizationPrefix, caller.OrganizationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Organization ID creates invalid bucket name (too short or too long)")
		return
	}

	if err := h.objects.EnsureBucket(r.Context(), bucketName); err != nil {
		h.logger.Error("bucket creation failed", "error", err, "bucket", bucketName)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, CreateBucketResponse{
		OrganizationID: caller.OrganizationID,
		BucketName:     bucketName,
		Status:         "success",
		Message:        fmt.Sprintf("bucket %q is ready", bucketName),
	})
}

// ListBuckets lists all buckets visible to the service account.
func (h *Handlers) ListBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.objects.ListBuckets(r.Context())
	if err != nil {
		h.logger.Error("bucket listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list buckets")
		return
	}

	infos := make([]BucketInfo, 0, len(buckets))
	for _, b := range buckets {
		info := BucketInfo{Name: b.Name}
		if !b.CreationDate.IsZero() {
			created := b.CreationDate
			info.CreationDate = &created
		}
		infos = append(infos, info)
	}
	writeJSON(w, http.StatusOK, ListBucketsResponse{Buckets: infos})
}

// OrganizationStats reports which organizations hold cached vector stores.
func (h *Handlers) OrganizationStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, OrganizationStats{
		FactoryInstanceID: h.vectors.InstanceID(),
		MultiTenantStats:  h.vectors.Stats(),
	})
}

// GetRun returns one ingestion run, scoped to the caller's organization.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	caller := auth.FromContext(r.Context())
	if caller.OrganizationID == "" {
		writeError(w, http.StatusBadRequest, "X-Organization-Id header is required")
		return
	}

	run, err := h.registry.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("run lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	if run == nil || run.OrganizationID != caller.OrganizationID {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	resp := RunResponse{
		ID:         run.ID,
		DocID:      run.DocID,
		Status:     run.Status,
		ChunkCount: run.ChunkCount,
		CreatedAt:  run.CreatedAt,
	}
	if run.Error.Valid {
		resp.Error = run.Error.String
	}
	if run.StartedAt.Valid {
		t := run.StartedAt.Time
		resp.StartedAt = &t
	}
	if run.FinishedAt.Valid {
		t := run.FinishedAt.Time
		resp.FinishedAt = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

// isValidationError separates caller mistakes from pipeline failures so they
// map to 400 instead of 502.
func isValidationError(err error) bool {
	var verr *query.ValidationError
	return errors.As(err, &verr)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
