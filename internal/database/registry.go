package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// =============================================================================
// DOCUMENT QUERIES
// =============================================================================

// UpsertDocument records an uploaded document. Re-indexing an existing
// document refreshes its object path and type.
func (c *Client) UpsertDocument(ctx context.Context, doc *Document) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO documents (id, organization_id, user_id, doc_type, object_path)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
		  organization_id = EXCLUDED.organization_id,
		  user_id = EXCLUDED.user_id,
		  doc_type = EXCLUDED.doc_type,
		  object_path = EXCLUDED.object_path
	`, doc.ID, doc.OrganizationID, doc.UserID, doc.DocType, doc.ObjectPath)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (c *Client) GetDocument(ctx context.Context, id string) (*Document, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, organization_id, user_id, doc_type, object_path, created_at
		FROM documents
		WHERE id = $1
	`, id)

	var d Document
	err := row.Scan(&d.ID, &d.OrganizationID, &d.UserID, &d.DocType, &d.ObjectPath, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &d, nil
}

// =============================================================================
// INGESTION RUN QUERIES
// =============================================================================

// CreateRun records a pending ingestion run for a document.
func (c *Client) CreateRun(ctx context.Context, docID, organizationID string) (*IngestionRun, error) {
	id := uuid.New().String()
	row := c.db.QueryRowContext(ctx, `
		INSERT INTO ingestion_runs (id, doc_id, organization_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, doc_id, organization_id, status, error, chunk_count, created_at, started_at, finished_at
	`, id, docID, organizationID, RunStatusPending)

	return scanRun(row)
}

// GetRun retrieves an ingestion run by ID.
func (c *Client) GetRun(ctx context.Context, id string) (*IngestionRun, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, doc_id, organization_id, status, error, chunk_count, created_at, started_at, finished_at
		FROM ingestion_runs
		WHERE id = $1
	`, id)

	run, err := scanRun(row)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// MarkRunStarted transitions a run to running.
func (c *Client) MarkRunStarted(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE ingestion_runs
		SET status = $2, started_at = NOW()
		WHERE id = $1
	`, id, RunStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to mark run started: %w", err)
	}
	return nil
}

// MarkRunCompleted transitions a run to completed with its chunk count.
func (c *Client) MarkRunCompleted(ctx context.Context, id string, chunkCount int) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE ingestion_runs
		SET status = $2, chunk_count = $3, finished_at = NOW()
		WHERE id = $1
	`, id, RunStatusCompleted, chunkCount)
	if err != nil {
		return fmt.Errorf("failed to mark run completed: %w", err)
	}
	return nil
}

// MarkRunFailed transitions a run to failed with the error message.
func (c *Client) MarkRunFailed(ctx context.Context, id, errMsg string) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE ingestion_runs
		SET status = $2, error = $3, finished_at = NOW()
		WHERE id = $1
	`, id, RunStatusFailed, errMsg)
	if err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	return nil
}

func scanRun(row *sql.Row) (*IngestionRun, error) {
	var r IngestionRun
	err := row.Scan(&r.ID, &r.DocID, &r.OrganizationID, &r.Status, &r.Error, &r.ChunkCount, &r.CreatedAt, &r.StartedAt, &r.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return &r, nil
}
