package vectorstore

import (
	"sort"
	"testing"
)

// memStore is an in-memory Store used by manager tests.
type memStore struct {
	entries []Entry
	deleted [][2]string
	closed  bool
}

func (m *memStore) UpsertEntries(entries []Entry) error {
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memStore) Query(embedding []float32, filter QueryFilter, topK int) ([]SearchResult, error) {
	var out []SearchResult
	for _, e := range m.entries {
		if e.OrganizationID != filter.OrganizationID {
			continue
		}
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		out = append(out, SearchResult{DocID: e.DocID, ChunkIndex: e.ChunkIndex, ContentText: e.ContentText})
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

func (m *memStore) DeleteByDocument(organizationID, docID string) error {
	m.deleted = append(m.deleted, [2]string{organizationID, docID})
	return nil
}

func (m *memStore) CountByOrganization(organizationID string) (int, error) {
	n := 0
	for _, e := range m.entries {
		if e.OrganizationID == organizationID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) Close() error {
	m.closed = true
	return nil
}

func TestManagerCachesOrgStores(t *testing.T) {
	mgr := NewManager(&memStore{})
	a := mgr.ForOrganization("acme")
	b := mgr.ForOrganization("acme")
	if a != b {
		t.Error("expected the same cached store for one organization")
	}
	if a.OrganizationID() != "acme" {
		t.Errorf("unexpected org id %q", a.OrganizationID())
	}
}

func TestManagerStats(t *testing.T) {
	mgr := NewManager(&memStore{})
	mgr.ForOrganization("acme")
	mgr.ForOrganization("globex")

	stats := mgr.Stats()
	if stats["total_organizations"] != 2 {
		t.Errorf("expected 2 organizations, got %v", stats["total_organizations"])
	}
	orgs := stats["organizations"].([]string)
	sort.Strings(orgs)
	if orgs[0] != "acme" || orgs[1] != "globex" {
		t.Errorf("unexpected orgs %v", orgs)
	}
	if stats["manager_instance_id"] != mgr.InstanceID() {
		t.Error("stats should carry the manager instance id")
	}
}

func TestManagerRemove(t *testing.T) {
	mgr := NewManager(&memStore{})
	mgr.ForOrganization("acme")
	if !mgr.Remove("acme") {
		t.Error("expected Remove to report true for cached org")
	}
	if mgr.Remove("acme") {
		t.Error("expected Remove to report false for missing org")
	}
}

func TestOrgStoreScopesTenant(t *testing.T) {
	backing := &memStore{}
	mgr := NewManager(backing)
	store := mgr.ForOrganization("acme")

	err := store.Upsert([]Entry{
		{OrganizationID: "spoofed", DocID: "d1", ChunkIndex: 0, UserID: "u1", ContentText: "hello"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if backing.entries[0].OrganizationID != "acme" {
		t.Errorf("upsert must force the view's organization, got %q", backing.entries[0].OrganizationID)
	}

	results, err := store.Query([]float32{1}, "u1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].DocID != "d1" {
		t.Errorf("unexpected results %v", results)
	}

	if err := store.DeleteDocument("d1"); err != nil {
		t.Fatal(err)
	}
	if backing.deleted[0] != [2]string{"acme", "d1"} {
		t.Errorf("unexpected delete scope %v", backing.deleted[0])
	}

	n, err := store.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected count 1, got %d", n)
	}
}
