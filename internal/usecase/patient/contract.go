package patient

import (
	"context"

	dompat "github.com/clinicore/chartfind/internal/domain/patient"
)

// Repository defines the storage contract for patient records.
type Repository interface {
	GetByID(ctx context.Context, id string) (dompat.Patient, error)
	Upsert(ctx context.Context, p *dompat.Patient) (created bool, err error)
	Delete(ctx context.Context, id string) error
}

// EntityCache is the read-through cache for individual fetches. Writes
// must invalidate synchronously before they are reported complete.
type EntityCache interface {
	Get(id, principal string) (dompat.Patient, bool)
	Put(p dompat.Patient)
	Invalidate(id string)
}
