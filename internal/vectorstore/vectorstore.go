// Package vectorstore stores and searches embedded document chunks,
// isolated per organization.
package vectorstore

// Entry represents one embedded chunk of an indexed document.
type Entry struct {
	OrganizationID string
	UserID         string
	DocID          string
	ChunkIndex     int
	ContentText    string
	Metadata       map[string]any
	Embedding      []float32
}

// QueryFilter scopes similarity search to a tenant, and optionally a user
// or a set of documents.
type QueryFilter struct {
	OrganizationID string
	UserID         string
	DocIDs         []string
	Limit          int
}

// SearchResult captures a match returned by the store.
type SearchResult struct {
	DocID       string
	ChunkIndex  int
	Score       float32
	ContentText string
	Metadata    map[string]any
}

// Store defines the minimal operations a chunk store must support.
type Store interface {
	UpsertEntries(entries []Entry) error
	Query(embedding []float32, filter QueryFilter, topK int) ([]SearchResult, error)
	DeleteByDocument(organizationID, docID string) error
	CountByOrganization(organizationID string) (int, error)
	Close() error
}
