package search

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/clinicore/chartfind/internal/domain/patient"
	"github.com/clinicore/chartfind/internal/domain/search/cursor"
	"github.com/clinicore/chartfind/internal/domain/search/page"
)

type strategyCall struct {
	term string
	cur  cursor.Cursor
}

// mockRepo implements Repository with per-strategy function hooks and
// records every call.
type mockRepo struct {
	mu    sync.Mutex
	calls map[string][]strategyCall

	phoneFn    func(cur cursor.Cursor) (page.Page, error)
	identFn    func(cur cursor.Cursor) (page.Page, error)
	nameFn     func(cur cursor.Cursor) (page.Page, error)
	containsFn func(cur cursor.Cursor) (page.Page, error)
}

func newMockRepo() *mockRepo {
	return &mockRepo{calls: make(map[string][]strategyCall)}
}

func (m *mockRepo) record(name, term string, cur cursor.Cursor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name] = append(m.calls[name], strategyCall{term: term, cur: cur})
}

func (m *mockRepo) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls[name])
}

func (m *mockRepo) run(fn func(cur cursor.Cursor) (page.Page, error), cur cursor.Cursor) (page.Page, error) {
	if fn != nil {
		return fn(cur)
	}
	return page.Empty(), nil
}

func (m *mockRepo) PhonePrefix(_ context.Context, _, term string, cur cursor.Cursor, _ int) (page.Page, error) {
	m.record(StrategyPhonePrefix, term, cur)
	return m.run(m.phoneFn, cur)
}

func (m *mockRepo) IdentifierPrefix(_ context.Context, _, term string, cur cursor.Cursor, _ int) (page.Page, error) {
	m.record(StrategyIdentifierPrefix, term, cur)
	return m.run(m.identFn, cur)
}

func (m *mockRepo) NamePrefix(_ context.Context, _, term string, cur cursor.Cursor, _ int) (page.Page, error) {
	m.record(StrategyNamePrefix, term, cur)
	return m.run(m.nameFn, cur)
}

func (m *mockRepo) NameContains(_ context.Context, _, term string, cur cursor.Cursor, _ int) (page.Page, error) {
	m.record(StrategyNameContains, term, cur)
	return m.run(m.containsFn, cur)
}

// mockCache records write-through puts.
type mockCache struct {
	mu  sync.Mutex
	ids []string
}

func (m *mockCache) Put(p patient.Patient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, p.ID())
}

func (m *mockCache) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ids)
}

func newTestSession(t *testing.T) (*Session, *mockRepo, *mockCache) {
	t.Helper()
	repo := newMockRepo()
	cache := &mockCache{}
	svc := New(repo, cache, zap.NewNop(), 20)
	return svc.Session("clinic1"), repo, cache
}

func mkPatient(id string, createdAt int64) patient.Patient {
	return patient.Reconstruct(id, patient.OwnerOf(id), "", "", "", "Doe", nil, createdAt)
}

func pageOf(hasMore bool, next cursor.Cursor, patients ...patient.Patient) page.Page {
	return page.New(patients, next, hasMore)
}

func ids(patients []patient.Patient) []string {
	out := make([]string, len(patients))
	for i, p := range patients {
		out[i] = p.ID()
	}
	return out
}

func equalIDs(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
