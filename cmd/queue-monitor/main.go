// Package main polls the ingestion task queue and reports worker health.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"

	"github.com/ragpipe/ragpipe/internal/config"
	"github.com/ragpipe/ragpipe/internal/tasks"
)

const (
	checkInterval    = 60 * time.Second
	backlogThreshold = 100
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.Address,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("failed to create Temporal client: %v", err)
	}
	defer c.Close()

	log.Printf("Monitoring task queue %q every %s", cfg.Temporal.TaskQueue, checkInterval)

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		if err := checkWorkerHealth(context.Background(), c, cfg.Temporal.TaskQueue); err != nil {
			log.Printf("health check failed: %v", err)
		}
		<-ticker.C
	}
}

// checkWorkerHealth verifies pollers are attached to the task queue and
// warns when the indexing backlog builds up.
func checkWorkerHealth(ctx context.Context, c client.Client, taskQueue string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := c.DescribeTaskQueue(ctx, taskQueue, enumspb.TASK_QUEUE_TYPE_WORKFLOW)
	if err != nil {
		return fmt.Errorf("describe task queue: %w", err)
	}
	pollers := len(resp.GetPollers())
	if pollers == 0 {
		log.Printf("ERROR: no workers are polling queue %q", taskQueue)
	} else {
		log.Printf("Workers polling %q: %d", taskQueue, pollers)
	}

	count, err := c.CountWorkflow(ctx, &workflowservice.CountWorkflowExecutionsRequest{
		Query: fmt.Sprintf("WorkflowType = '%s' AND ExecutionStatus = 'Running'", tasks.IndexDocumentWorkflow),
	})
	if err != nil {
		return fmt.Errorf("count running workflows: %w", err)
	}

	backlog := count.GetCount()
	log.Printf("Running indexing workflows: %d", backlog)
	if backlog > backlogThreshold {
		log.Printf("WARNING: high queue backlog detected (%d running)", backlog)
	}
	return nil
}
