package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.Port != "8000" {
		t.Errorf("expected default port 8000, got %q", cfg.API.Port)
	}
	if cfg.Query.Retriever.TopK != 10 {
		t.Errorf("expected default top_k 10, got %d", cfg.Query.Retriever.TopK)
	}
	if cfg.Minio.URLExpiryMinute != 10 {
		t.Errorf("expected default url expiry 10, got %d", cfg.Minio.URLExpiryMinute)
	}
	if cfg.Temporal.TaskQueue != "ragpipe-ingestion" {
		t.Errorf("unexpected default task queue %q", cfg.Temporal.TaskQueue)
	}
}

func TestLoadFileYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
api:
  port: "9100"
minio:
  endpoint: minio.internal:9000
  bucket: docs
tenancy:
  organization_prefix: tenant
llm:
  model: llama3.2
  base_url: http://ollama:11434/v1
query:
  retriever:
    top_k: 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MINIO_BUCKET", "docs-override")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.Port != "9100" {
		t.Errorf("expected port 9100, got %q", cfg.API.Port)
	}
	if cfg.Minio.Bucket != "docs-override" {
		t.Errorf("env override not applied, got %q", cfg.Minio.Bucket)
	}
	if cfg.Tenancy.OrganizationPrefix != "tenant" {
		t.Errorf("expected tenant prefix, got %q", cfg.Tenancy.OrganizationPrefix)
	}
	if cfg.LLM.Model != "llama3.2" {
		t.Errorf("expected llm model from file, got %q", cfg.LLM.Model)
	}
	if cfg.Query.Retriever.TopK != 5 {
		t.Errorf("expected top_k 5, got %d", cfg.Query.Retriever.TopK)
	}
	// Embedder base URL falls back to the LLM endpoint.
	if cfg.Embedder.BaseURL != "http://ollama:11434/v1" {
		t.Errorf("expected embedder base url fallback, got %q", cfg.Embedder.BaseURL)
	}
}

func TestLoadFileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("api: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error for malformed yaml")
	}
}
