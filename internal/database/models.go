package database

import (
	"database/sql"
	"time"
)

// Run statuses.
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Document represents a registered upload.
type Document struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	UserID         string    `json:"userId"`
	DocType        string    `json:"docType"`
	ObjectPath     string    `json:"objectPath"`
	CreatedAt      time.Time `json:"createdAt"`
}

// IngestionRun tracks one indexing attempt for a document.
type IngestionRun struct {
	ID             string         `json:"id"`
	DocID          string         `json:"docId"`
	OrganizationID string         `json:"organizationId"`
	Status         string         `json:"status"`
	Error          sql.NullString `json:"error"`
	ChunkCount     int            `json:"chunkCount"`
	CreatedAt      time.Time      `json:"createdAt"`
	StartedAt      sql.NullTime   `json:"startedAt"`
	FinishedAt     sql.NullTime   `json:"finishedAt"`
}
