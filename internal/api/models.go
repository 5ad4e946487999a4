package api

import "time"

// GenerateUploadURLRequest asks for a pre-signed upload slot for one document.
type GenerateUploadURLRequest struct {
	DocType string `json:"doc_type"`
}

// GenerateUploadURLResponse returns where the client should PUT the document.
type GenerateUploadURLResponse struct {
	DocID      string `json:"doc_id"`
	UploadURL  string `json:"upload_url"`
	ObjectPath string `json:"object_path"`
}

// IndexDocRequest dispatches indexing for an already-uploaded document.
type IndexDocRequest struct {
	DocID      string `json:"doc_id"`
	ObjectPath string `json:"object_path"`
}

// IndexDocResponse acknowledges a dispatched indexing run.
type IndexDocResponse struct {
	DocID  string `json:"doc_id"`
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// QueryRequest is a natural language question with its target systems.
type QueryRequest struct {
	Query   string   `json:"query"`
	Targets []string `json:"targets"`
}

// QueryResponse carries the synthesized answer.
type QueryResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status string `json:"status"`
}

// BucketInfo describes one object-storage bucket.
type BucketInfo struct {
	Name         string     `json:"name"`
	CreationDate *time.Time `json:"creation_date,omitempty"`
}

// ListBucketsResponse lists buckets visible to the service.
type ListBucketsResponse struct {
	Buckets []BucketInfo `json:"buckets"`
}

// CreateBucketResponse acknowledges organization bucket provisioning.
type CreateBucketResponse struct {
	OrganizationID string `json:"organization_id"`
	BucketName     string `json:"bucket_name"`
	Status         string `json:"status"`
	Message        string `json:"message"`
}

// OrganizationStats reports multi-tenant vector store statistics.
type OrganizationStats struct {
	FactoryInstanceID string         `json:"factory_instance_id"`
	MultiTenantStats  map[string]any `json:"multi_tenant_stats"`
}

// RunResponse exposes an ingestion run's registry state.
type RunResponse struct {
	ID         string     `json:"id"`
	DocID      string     `json:"doc_id"`
	Status     string     `json:"status"`
	ChunkCount int        `json:"chunk_count"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Detail string `json:"detail"`
}
