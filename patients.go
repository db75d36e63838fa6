package chartfind

import (
	"context"
	"fmt"
	"time"

	dompat "github.com/clinicore/chartfind/internal/domain/patient"
	patientuc "github.com/clinicore/chartfind/internal/usecase/patient"
)

// Patient is a patient record as seen by SDK callers.
type Patient struct {
	ID         string
	Phone      string
	Identifier string
	GivenName  string
	FamilyName string
	Attributes map[string]string
	CreatedAt  time.Time
}

// PatientInput holds the writable fields of a patient record.
type PatientInput struct {
	Phone      string
	Identifier string
	GivenName  string
	FamilyName string
	Attributes map[string]string
}

// PatientService manages patient records for a single principal.
type PatientService struct {
	principal string
	svc       *patientuc.Service
}

// Create mints a new patient record owned by the service's principal.
func (s *PatientService) Create(ctx context.Context, in PatientInput) (Patient, error) {
	p, err := s.svc.Create(ctx, s.principal, toInput(in))
	if err != nil {
		return Patient{}, fmt.Errorf("create patient: %w", err)
	}
	return fromDomain(&p), nil
}

// Get fetches a patient by identity. Records owned by other principals
// read as not found.
func (s *PatientService) Get(ctx context.Context, id string) (Patient, error) {
	p, err := s.svc.Get(ctx, id, s.principal)
	if err != nil {
		return Patient{}, fmt.Errorf("get patient: %w", err)
	}
	return fromDomain(&p), nil
}

// Update replaces the writable fields of an existing patient record.
func (s *PatientService) Update(ctx context.Context, id string, in PatientInput) (Patient, error) {
	p, err := s.svc.Update(ctx, id, s.principal, toInput(in))
	if err != nil {
		return Patient{}, fmt.Errorf("update patient: %w", err)
	}
	return fromDomain(&p), nil
}

// Delete removes a patient record and its index entries.
func (s *PatientService) Delete(ctx context.Context, id string) error {
	if err := s.svc.Delete(ctx, id, s.principal); err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return nil
}

func toInput(in PatientInput) patientuc.Input {
	return patientuc.Input{
		Phone:      in.Phone,
		Identifier: in.Identifier,
		GivenName:  in.GivenName,
		FamilyName: in.FamilyName,
		Attributes: in.Attributes,
	}
}

func fromDomain(p *dompat.Patient) Patient {
	return Patient{
		ID:         p.ID(),
		Phone:      p.Phone(),
		Identifier: p.Identifier(),
		GivenName:  p.GivenName(),
		FamilyName: p.FamilyName(),
		Attributes: p.Attributes(),
		CreatedAt:  time.UnixMilli(p.CreatedAt()).UTC(),
	}
}
