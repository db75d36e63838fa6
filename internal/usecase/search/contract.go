package search

import (
	"context"

	"github.com/clinicore/chartfind/internal/domain/patient"
	"github.com/clinicore/chartfind/internal/domain/search/cursor"
	"github.com/clinicore/chartfind/internal/domain/search/page"
)

// Repository defines the storage contract for the query strategies. Each
// method runs one paged query scoped to a principal; the cursor resumes a
// prior page and the zero cursor starts fresh.
type Repository interface {
	PhonePrefix(ctx context.Context, principal, term string, cur cursor.Cursor, limit int) (page.Page, error)
	IdentifierPrefix(ctx context.Context, principal, term string, cur cursor.Cursor, limit int) (page.Page, error)
	NamePrefix(ctx context.Context, principal, term string, cur cursor.Cursor, limit int) (page.Page, error)
	NameContains(ctx context.Context, principal, term string, cur cursor.Cursor, limit int) (page.Page, error)
}

// EntityCache receives every entity surfaced by any strategy (written
// through on every read path).
type EntityCache interface {
	Put(p patient.Patient)
}
