package patient

import (
	"context"
	"testing"

	dompat "github.com/clinicore/chartfind/internal/domain/patient"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn         func(ctx context.Context, key string, fields map[string]string) error
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	delFn          func(ctx context.Context, key string) error
	indexAddFn     func(ctx context.Context, key, member string) error
	indexRemoveFn  func(ctx context.Context, key, member string) error
	lexRangeFn     func(ctx context.Context, key, min, max string, limit int) ([]string, error)
	lexScanFn      func(ctx context.Context, key, pattern string, cursor uint64, count int) ([]string, uint64, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) IndexAdd(ctx context.Context, key, member string) error {
	if m.indexAddFn != nil {
		return m.indexAddFn(ctx, key, member)
	}
	return nil
}

func (m *mockStore) IndexRemove(ctx context.Context, key, member string) error {
	if m.indexRemoveFn != nil {
		return m.indexRemoveFn(ctx, key, member)
	}
	return nil
}

func (m *mockStore) LexRange(ctx context.Context, key, min, max string, limit int) ([]string, error) {
	if m.lexRangeFn != nil {
		return m.lexRangeFn(ctx, key, min, max, limit)
	}
	return nil, nil
}

func (m *mockStore) LexScan(
	ctx context.Context, key, pattern string, cursor uint64, count int,
) ([]string, uint64, error) {
	if m.lexScanFn != nil {
		return m.lexScanFn(ctx, key, pattern, cursor, count)
	}
	return nil, 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func testPatient(t *testing.T) dompat.Patient {
	t.Helper()
	p, err := dompat.New(
		"clinic1:p-1", "clinic1", "15551234567", "MRN-88",
		"John", "Doe", map[string]string{"note": "allergy"}, 1700000000000,
	)
	if err != nil {
		t.Fatalf("testPatient: %v", err)
	}
	return p
}

// testHash is the stored form of testPatient.
func testHash() map[string]string {
	return map[string]string{
		fieldID:         "clinic1:p-1",
		fieldPrincipal:  "clinic1",
		fieldPhone:      "15551234567",
		fieldIdentifier: "mrn-88",
		fieldGivenName:  "John",
		fieldFamilyName: "Doe",
		fieldAttributes: `{"note":"allergy"}`,
		fieldCreatedAt:  "1700000000000",
	}
}

func hashFor(id, name, createdAt string) map[string]string {
	return map[string]string{
		fieldID:         id,
		fieldPrincipal:  dompat.OwnerOf(id),
		fieldFamilyName: name,
		fieldCreatedAt:  createdAt,
	}
}
