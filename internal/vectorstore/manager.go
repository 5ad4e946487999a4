package vectorstore

import (
	"sync"

	"github.com/google/uuid"
)

// Manager hands out per-organization views over a shared chunk store and
// tracks which organizations have been active in this process. The indexing
// and query paths share one Manager so tenant bookkeeping stays consistent.
type Manager struct {
	instanceID string
	store      Store

	mu   sync.RWMutex
	orgs map[string]*OrgStore
}

// OrgStore is a Store view scoped to a single organization.
type OrgStore struct {
	organizationID string
	store          Store
}

// NewManager creates a manager over the shared store.
func NewManager(store Store) *Manager {
	return &Manager{
		instanceID: uuid.New().String(),
		store:      store,
		orgs:       make(map[string]*OrgStore),
	}
}

// InstanceID identifies this manager instance.
func (m *Manager) InstanceID() string { return m.instanceID }

// ForOrganization returns (creating if needed) the scoped store for an organization.
func (m *Manager) ForOrganization(organizationID string) *OrgStore {
	m.mu.RLock()
	if s, ok := m.orgs[organizationID]; ok {
		m.mu.RUnlock()
		return s
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.orgs[organizationID]; ok {
		return s
	}
	s := &OrgStore{organizationID: organizationID, store: m.store}
	m.orgs[organizationID] = s
	return s
}

// Organizations lists organizations with active stores in this process.
func (m *Manager) Organizations() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.orgs))
	for org := range m.orgs {
		out = append(out, org)
	}
	return out
}

// Remove drops the cached store for an organization. Returns true if present.
func (m *Manager) Remove(organizationID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[organizationID]; !ok {
		return false
	}
	delete(m.orgs, organizationID)
	return true
}

// Stats summarizes the active tenants.
func (m *Manager) Stats() map[string]any {
	orgs := m.Organizations()
	return map[string]any{
		"total_organizations": len(orgs),
		"organizations":       orgs,
		"manager_instance_id": m.instanceID,
	}
}

// Close closes the underlying shared store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// OrganizationID returns the tenant this view is scoped to.
func (s *OrgStore) OrganizationID() string { return s.organizationID }

// Upsert stores entries, forcing the view's organization onto each.
func (s *OrgStore) Upsert(entries []Entry) error {
	for i := range entries {
		entries[i].OrganizationID = s.organizationID
	}
	return s.store.UpsertEntries(entries)
}

// Query searches within this organization. userID is optional.
func (s *OrgStore) Query(embedding []float32, userID string, topK int) ([]SearchResult, error) {
	return s.store.Query(embedding, QueryFilter{
		OrganizationID: s.organizationID,
		UserID:         userID,
	}, topK)
}

// DeleteDocument removes a document's chunks within this organization.
func (s *OrgStore) DeleteDocument(docID string) error {
	return s.store.DeleteByDocument(s.organizationID, docID)
}

// Count returns the chunk count for this organization.
func (s *OrgStore) Count() (int, error) {
	return s.store.CountByOrganization(s.organizationID)
}
