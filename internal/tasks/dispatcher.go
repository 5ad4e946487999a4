package tasks

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"
)

// Task names accepted by dispatchers.
const (
	TaskIndexDocument = "index_document"
)

// Dispatcher sends a task for asynchronous processing.
type Dispatcher interface {
	Dispatch(ctx context.Context, taskName string, payload any) error
}

// TemporalDispatcher implements Dispatcher by starting workflows.
type TemporalDispatcher struct {
	client    client.Client
	taskQueue string
}

// NewTemporalDispatcher creates a dispatcher bound to a task queue.
func NewTemporalDispatcher(c client.Client, taskQueue string) *TemporalDispatcher {
	return &TemporalDispatcher{client: c, taskQueue: taskQueue}
}

// Dispatch starts the workflow matching the task name.
func (d *TemporalDispatcher) Dispatch(ctx context.Context, taskName string, payload any) error {
	switch taskName {
	case TaskIndexDocument:
		input, ok := payload.(IndexDocumentInput)
		if !ok {
			return fmt.Errorf("task %s expects IndexDocumentInput, got %T", taskName, payload)
		}
		opts := client.StartWorkflowOptions{
			ID:        fmt.Sprintf("index-doc-%s-%s", input.DocID, input.RunID),
			TaskQueue: d.taskQueue,
		}
		_, err := d.client.ExecuteWorkflow(ctx, opts, IndexDocumentWorkflow, input)
		if err != nil {
			return fmt.Errorf("failed to start %s: %w", IndexDocumentWorkflow, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown task: %s", taskName)
	}
}
