// Package main is the entry point for the document pipeline API service.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/client"

	"github.com/ragpipe/ragpipe/internal/ai"
	"github.com/ragpipe/ragpipe/internal/ai/openai"
	"github.com/ragpipe/ragpipe/internal/api"
	"github.com/ragpipe/ragpipe/internal/config"
	"github.com/ragpipe/ragpipe/internal/database"
	"github.com/ragpipe/ragpipe/internal/objectstore"
	"github.com/ragpipe/ragpipe/internal/query"
	"github.com/ragpipe/ragpipe/internal/tasks"
	"github.com/ragpipe/ragpipe/internal/vectorstore"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Document registry
	db, err := database.NewClient(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(cfg.Database.MigrationsPath); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Object storage
	objects, err := objectstore.NewMinioStore(&objectstore.Config{
		Endpoint:  cfg.Minio.Endpoint,
		AccessKey: cfg.Minio.AccessKey,
		SecretKey: cfg.Minio.SecretKey,
		Secure:    cfg.Minio.Secure,
	})
	if err != nil {
		log.Fatalf("failed to create object store: %v", err)
	}
	if err := objects.EnsureBucket(ctx, cfg.Minio.Bucket); err != nil {
		log.Fatalf("failed to ensure upload bucket %q: %v", cfg.Minio.Bucket, err)
	}

	// Per-organization vector stores backed by pgvector
	chunks, err := vectorstore.NewPgVectorStoreFromDB(db.DB(), cfg.Vector.Dimension)
	if err != nil {
		log.Fatalf("failed to initialize vector store: %v", err)
	}
	vectors := vectorstore.NewManager(chunks)

	// Embedding and completion models
	provider, err := openai.NewProvider(&ai.Config{
		EmbeddingHost:  cfg.Embedder.BaseURL,
		EmbeddingModel: cfg.Embedder.Model,
		LLMHost:        cfg.LLM.BaseURL,
		LLMModel:       cfg.LLM.Model,
	})
	if err != nil {
		log.Fatalf("failed to create model provider: %v", err)
	}

	// Query pipeline
	pipeline, err := query.NewPipeline(provider.Embedder(), provider.LLM(), vectors,
		query.WithTopK(cfg.Query.Retriever.TopK),
		query.WithSQLBranch(db.DB(), cfg.Database.Schema))
	if err != nil {
		log.Fatalf("failed to build query pipeline: %v", err)
	}

	// Task dispatch
	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.Address,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("failed to create Temporal client: %v", err)
	}
	defer temporalClient.Close()

	dispatcher := tasks.NewTemporalDispatcher(temporalClient, cfg.Temporal.TaskQueue)

	handlers := api.NewHandlers(cfg, objects, vectors, db, dispatcher, pipeline)
	server := &http.Server{
		Addr:    ":" + cfg.API.Port,
		Handler: handlers.Routes(),
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("shutting down...")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			log.Printf("error shutting down server: %v", err)
		}
	}()

	log.Printf("API listening on :%s", cfg.API.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
