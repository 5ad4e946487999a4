package tasks

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/ragpipe/ragpipe/internal/database"
)

// RegistryActivities holds the run-bookkeeping activities backed by the
// document registry.
type RegistryActivities struct {
	db *database.Client
}

// NewRegistryActivities creates the registry activity set.
func NewRegistryActivities(db *database.Client) *RegistryActivities {
	return &RegistryActivities{db: db}
}

// MarkRunStartedInput identifies the run to transition.
type MarkRunStartedInput struct {
	RunID string `json:"runId"`
}

// MarkRunStarted transitions a run to running.
func (a *RegistryActivities) MarkRunStarted(ctx context.Context, input MarkRunStartedInput) error {
	logger := activity.GetLogger(ctx)
	logger.Info("run started", "runId", input.RunID)
	if input.RunID == "" {
		return fmt.Errorf("runId is required")
	}
	return a.db.MarkRunStarted(ctx, input.RunID)
}

// MarkRunCompletedInput carries the final chunk count.
type MarkRunCompletedInput struct {
	RunID      string `json:"runId"`
	ChunkCount int    `json:"chunkCount"`
}

// MarkRunCompleted transitions a run to completed.
func (a *RegistryActivities) MarkRunCompleted(ctx context.Context, input MarkRunCompletedInput) error {
	logger := activity.GetLogger(ctx)
	logger.Info("run completed", "runId", input.RunID, "chunks", input.ChunkCount)
	if input.RunID == "" {
		return fmt.Errorf("runId is required")
	}
	return a.db.MarkRunCompleted(ctx, input.RunID, input.ChunkCount)
}

// MarkRunFailedInput carries the failure reason.
type MarkRunFailedInput struct {
	RunID string `json:"runId"`
	Error string `json:"error"`
}

// MarkRunFailed transitions a run to failed.
func (a *RegistryActivities) MarkRunFailed(ctx context.Context, input MarkRunFailedInput) error {
	logger := activity.GetLogger(ctx)
	logger.Info("run failed", "runId", input.RunID, "error", input.Error)
	if input.RunID == "" {
		return fmt.Errorf("runId is required")
	}
	return a.db.MarkRunFailed(ctx, input.RunID, input.Error)
}
