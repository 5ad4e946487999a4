package vectorstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

// PgVectorStore implements Store backed by Postgres + pgvector.
type PgVectorStore struct {
	db        *sql.DB
	dimension int
}

// NewPgVectorStoreFromDB reuses an existing *sql.DB (for example opened via pgx stdlib)
// and ensures the doc_chunks table exists.
func NewPgVectorStoreFromDB(db *sql.DB, dimension int) (*PgVectorStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if dimension <= 0 {
		dimension = 768
	}
	store := &PgVectorStore{db: db, dimension: dimension}
	if err := store.ensureTables(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *PgVectorStore) ensureTables() error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS doc_chunks (
  organization_id text NOT NULL,
  user_id         text,
  doc_id          text NOT NULL,
  chunk_index     integer NOT NULL,
  content_text    text,
  metadata        jsonb,
  embedding       vector(%d),
  created_at      timestamptz NOT NULL DEFAULT now(),
  updated_at      timestamptz NOT NULL DEFAULT now(),
  PRIMARY KEY (organization_id, doc_id, chunk_index)
);
CREATE INDEX IF NOT EXISTS doc_chunks_org_idx ON doc_chunks (organization_id);
CREATE INDEX IF NOT EXISTS doc_chunks_org_user_idx ON doc_chunks (organization_id, user_id);
CREATE INDEX IF NOT EXISTS doc_chunks_meta_idx ON doc_chunks USING gin (metadata);
CREATE INDEX IF NOT EXISTS doc_chunks_embedding_idx ON doc_chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
`, s.dimension)
	_, err := s.db.Exec(ddl)
	return err
}

func (s *PgVectorStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// UpsertEntries inserts or updates chunk entries with embeddings.
func (s *PgVectorStore) UpsertEntries(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt := `
INSERT INTO doc_chunks
 (organization_id, user_id, doc_id, chunk_index, content_text, metadata, embedding, updated_at)
 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
 ON CONFLICT (organization_id, doc_id, chunk_index) DO UPDATE SET
   user_id=EXCLUDED.user_id,
   content_text=EXCLUDED.content_text,
   metadata=EXCLUDED.metadata,
   embedding=EXCLUDED.embedding,
   updated_at=now();
`
	for _, e := range entries {
		metaBytes, _ := json.Marshal(e.Metadata)
		embLit, err := toVectorLiteral(e.Embedding, s.dimension)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(stmt,
			e.OrganizationID, e.UserID, e.DocID, e.ChunkIndex, e.ContentText, metaBytes, embLit, time.Now().UTC(),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Query performs similarity search scoped by the filter.
func (s *PgVectorStore) Query(embedding []float32, filter QueryFilter, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 10
	}
	if filter.OrganizationID == "" {
		return nil, errors.New("organization id is required")
	}
	embLit, err := toVectorLiteral(embedding, s.dimension)
	if err != nil {
		return nil, err
	}

	where := []string{"organization_id = $1"}
	args := []any{filter.OrganizationID}

	argIdx := 2
	if filter.UserID != "" {
		where = append(where, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, filter.UserID)
		argIdx++
	}
	if len(filter.DocIDs) > 0 {
		where = append(where, fmt.Sprintf("doc_id = ANY($%d)", argIdx))
		args = append(args, pq.Array(filter.DocIDs))
		argIdx++
	}

	whereSQL := strings.Join(where, " AND ")
	// embLit only ever contains digits, commas and brackets, so inlining
	// the quoted literal is safe.
	query := fmt.Sprintf(`
SELECT doc_id, chunk_index, 1 - (embedding <=> '%s'::vector) AS score, content_text, metadata
FROM doc_chunks
WHERE %s
ORDER BY embedding <=> '%s'::vector
LIMIT %d;
`, embLit, whereSQL, embLit, topK)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var metaBytes []byte
		if err := rows.Scan(&r.DocID, &r.ChunkIndex, &r.Score, &r.ContentText, &metaBytes); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(metaBytes, &r.Metadata)
		results = append(results, r)
	}
	return results, rows.Err()
}

// DeleteByDocument removes all chunks produced by a document.
func (s *PgVectorStore) DeleteByDocument(organizationID, docID string) error {
	_, err := s.db.Exec(`DELETE FROM doc_chunks WHERE organization_id = $1 AND doc_id = $2`, organizationID, docID)
	return err
}

// CountByOrganization returns the number of chunks an organization holds.
func (s *PgVectorStore) CountByOrganization(organizationID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT count(*) FROM doc_chunks WHERE organization_id = $1`, organizationID).Scan(&count)
	return count, err
}

func toVectorLiteral(embedding []float32, dim int) (string, error) {
	if len(embedding) == 0 {
		return "", errors.New("embedding is required")
	}
	if dim > 0 && len(embedding) != dim {
		return "", fmt.Errorf("embedding length %d does not match dimension %d", len(embedding), dim)
	}
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ",")), nil
}
