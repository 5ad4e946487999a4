// Package main runs the document ingestion Temporal worker.
package main

import (
	"context"
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/ragpipe/ragpipe/internal/ai"
	"github.com/ragpipe/ragpipe/internal/ai/openai"
	"github.com/ragpipe/ragpipe/internal/config"
	"github.com/ragpipe/ragpipe/internal/database"
	"github.com/ragpipe/ragpipe/internal/ingest"
	"github.com/ragpipe/ragpipe/internal/objectstore"
	"github.com/ragpipe/ragpipe/internal/tasks"
	"github.com/ragpipe/ragpipe/internal/vectorstore"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	log.Printf("Starting ingest worker: address=%s namespace=%s queue=%s",
		cfg.Temporal.Address, cfg.Temporal.Namespace, cfg.Temporal.TaskQueue)

	db, err := database.NewClient(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	objects, err := objectstore.NewMinioStore(&objectstore.Config{
		Endpoint:  cfg.Minio.Endpoint,
		AccessKey: cfg.Minio.AccessKey,
		SecretKey: cfg.Minio.SecretKey,
		Secure:    cfg.Minio.Secure,
	})
	if err != nil {
		log.Fatalf("failed to create object store: %v", err)
	}

	chunks, err := vectorstore.NewPgVectorStoreFromDB(db.DB(), cfg.Vector.Dimension)
	if err != nil {
		log.Fatalf("failed to initialize vector store: %v", err)
	}
	vectors := vectorstore.NewManager(chunks)

	provider, err := openai.NewProvider(&ai.Config{
		EmbeddingHost:  cfg.Embedder.BaseURL,
		EmbeddingModel: cfg.Embedder.Model,
		LLMHost:        cfg.LLM.BaseURL,
		LLMModel:       cfg.LLM.Model,
	})
	if err != nil {
		log.Fatalf("failed to create model provider: %v", err)
	}

	ingestActs, err := ingest.NewActivities(objects, vectors, provider.Embedder())
	if err != nil {
		log.Fatalf("failed to create ingest activities: %v", err)
	}
	registryActs := tasks.NewRegistryActivities(db)

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.Address,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("failed to create Temporal client: %v", err)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflowWithOptions(tasks.IndexDocumentWorkflowFunc,
		workflow.RegisterOptions{Name: tasks.IndexDocumentWorkflow})

	w.RegisterActivity(ingestActs.FetchDocument)
	w.RegisterActivity(ingestActs.IndexDocument)
	w.RegisterActivity(registryActs.MarkRunStarted)
	w.RegisterActivity(registryActs.MarkRunCompleted)
	w.RegisterActivity(registryActs.MarkRunFailed)

	log.Printf("Registered workflow %s and 5 activities", tasks.IndexDocumentWorkflow)

	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker failed: %v", err)
	}
}
