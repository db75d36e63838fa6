package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/chartfind/internal/domain"
	dompat "github.com/clinicore/chartfind/internal/domain/patient"
)

// Input carries the caller-editable fields of a patient record.
type Input struct {
	Phone      string
	Identifier string
	GivenName  string
	FamilyName string
	Attributes map[string]string
}

// Service handles patient CRUD. Every read path populates the entity
// cache; every write invalidates it before returning.
type Service struct {
	repo  Repository
	cache EntityCache
}

// New creates a patient service.
func New(repo Repository, cache EntityCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Create mints an identity under the principal and stores the record.
func (s *Service) Create(ctx context.Context, principal string, in Input) (dompat.Patient, error) {
	id := principal + ":" + uuid.NewString()

	p, err := newPatient(id, principal, in, time.Now().UnixMilli())
	if err != nil {
		return dompat.Patient{}, err
	}

	if _, err := s.repo.Upsert(ctx, &p); err != nil {
		return dompat.Patient{}, fmt.Errorf("create patient: %w", err)
	}

	s.cache.Put(p)
	return p, nil
}

// Get returns a patient by identity, cache first. An identity owned by a
// different principal is reported as not found.
func (s *Service) Get(ctx context.Context, id, principal string) (dompat.Patient, error) {
	if dompat.OwnerOf(id) != principal {
		return dompat.Patient{}, domain.ErrPatientNotFound
	}

	if p, ok := s.cache.Get(id, principal); ok {
		return p, nil
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dompat.Patient{}, err
	}
	if p.Principal() != principal {
		return dompat.Patient{}, domain.ErrPatientNotFound
	}

	s.cache.Put(p)
	return p, nil
}

// Update replaces a patient's editable fields, preserving identity and
// creation time. The cache entry is invalidated before Update returns so
// a subsequent Get re-fetches the stored record.
func (s *Service) Update(ctx context.Context, id, principal string, in Input) (dompat.Patient, error) {
	if dompat.OwnerOf(id) != principal {
		return dompat.Patient{}, domain.ErrPatientNotFound
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dompat.Patient{}, err
	}

	p, err := newPatient(id, principal, in, current.CreatedAt())
	if err != nil {
		return dompat.Patient{}, err
	}

	if _, err := s.repo.Upsert(ctx, &p); err != nil {
		return dompat.Patient{}, fmt.Errorf("update patient: %w", err)
	}

	s.cache.Invalidate(id)
	return p, nil
}

// Delete removes a patient. The cache entry is invalidated before Delete
// returns.
func (s *Service) Delete(ctx context.Context, id, principal string) error {
	if dompat.OwnerOf(id) != principal {
		return domain.ErrPatientNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Invalidate(id)
	return nil
}

func newPatient(id, principal string, in Input, createdAt int64) (dompat.Patient, error) {
	p, err := dompat.New(
		id, principal,
		dompat.NormalizePhone(in.Phone),
		in.Identifier, in.GivenName, in.FamilyName,
		in.Attributes, createdAt,
	)
	if err != nil {
		return dompat.Patient{}, fmt.Errorf("%w: %w", domain.ErrInvalidPatient, err)
	}
	return p, nil
}
