// Package tasks provides workflow definitions and dispatch for asynchronous
// document indexing.
package tasks

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// =============================================================================
// WORKFLOW NAMES
// =============================================================================

const (
	// IndexDocumentWorkflow is the registered name of the indexing workflow.
	IndexDocumentWorkflow = "indexDocumentWorkflow"
)

// =============================================================================
// ACTIVITY OPTIONS
// =============================================================================

// registryActivityOptions covers the fast bookkeeping activities.
var registryActivityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: time.Minute,
	RetryPolicy: &temporal.RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    time.Minute,
		MaximumAttempts:    3,
	},
}

// ingestActivityOptions covers the fetch/index activities. A failed attempt
// is retried after a minute, three more times.
var ingestActivityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: 30 * time.Minute,
	RetryPolicy: &temporal.RetryPolicy{
		InitialInterval:    time.Minute,
		BackoffCoefficient: 2.0,
		MaximumInterval:    10 * time.Minute,
		MaximumAttempts:    4,
	},
}

// =============================================================================
// WORKFLOW INPUT
// =============================================================================

// IndexDocumentInput is the input for IndexDocumentWorkflow.
type IndexDocumentInput struct {
	DocID          string `json:"docId"`
	ObjectPath     string `json:"objectPath"`
	Bucket         string `json:"bucket"`
	UserID         string `json:"userId,omitempty"`
	OrganizationID string `json:"organizationId"`
	RunID          string `json:"runId"`
}

// =============================================================================
// INDEX DOCUMENT WORKFLOW
// =============================================================================

// IndexDocumentWorkflowFunc fetches an uploaded document from object storage
// and indexes its chunks into the vector store, tracking run state in the
// registry.
func IndexDocumentWorkflowFunc(ctx workflow.Context, input IndexDocumentInput) error {
	logger := workflow.GetLogger(ctx)

	if input.DocID == "" || input.ObjectPath == "" {
		return temporal.NewApplicationError("docId and objectPath are required", "INVALID_INPUT")
	}
	if input.OrganizationID == "" {
		return temporal.NewApplicationError("organizationId is required", "INVALID_INPUT")
	}

	regCtx := workflow.WithActivityOptions(ctx, registryActivityOptions)
	ingCtx := workflow.WithActivityOptions(ctx, ingestActivityOptions)

	logger.Info("indexing document", "docId", input.DocID, "org", input.OrganizationID)

	// Step 1: Mark run started
	if input.RunID != "" {
		err := workflow.ExecuteActivity(regCtx, "MarkRunStarted", map[string]any{
			"runId": input.RunID,
		}).Get(ctx, nil)
		if err != nil {
			return err
		}
	}

	// Step 2: Fetch the object and stage it locally
	var fetched struct {
		StagingPath string `json:"stagingPath"`
		Size        int64  `json:"size"`
	}
	err := workflow.ExecuteActivity(ingCtx, "FetchDocument", map[string]any{
		"bucket":     input.Bucket,
		"objectPath": input.ObjectPath,
		"docId":      input.DocID,
	}).Get(ctx, &fetched)
	if err != nil {
		markFailed(regCtx, input.RunID, err)
		return err
	}

	// Step 3: Extract, chunk, embed, upsert
	var indexed struct {
		ChunkCount int `json:"chunkCount"`
	}
	err = workflow.ExecuteActivity(ingCtx, "IndexDocument", map[string]any{
		"docId":          input.DocID,
		"objectPath":     input.ObjectPath,
		"stagingPath":    fetched.StagingPath,
		"userId":         input.UserID,
		"organizationId": input.OrganizationID,
	}).Get(ctx, &indexed)
	if err != nil {
		markFailed(regCtx, input.RunID, err)
		return err
	}

	logger.Info("document indexed", "docId", input.DocID, "chunks", indexed.ChunkCount)

	// Step 4: Mark run completed
	if input.RunID != "" {
		return workflow.ExecuteActivity(regCtx, "MarkRunCompleted", map[string]any{
			"runId":      input.RunID,
			"chunkCount": indexed.ChunkCount,
		}).Get(ctx, nil)
	}
	return nil
}

func markFailed(ctx workflow.Context, runID string, cause error) {
	if runID == "" {
		return
	}
	_ = workflow.ExecuteActivity(ctx, "MarkRunFailed", map[string]any{
		"runId": runID,
		"error": cause.Error(),
	}).Get(ctx, nil)
}
