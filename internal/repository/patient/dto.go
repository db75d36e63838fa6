package patient

import (
	"encoding/json"
	"fmt"
	"strconv"

	dompat "github.com/clinicore/chartfind/internal/domain/patient"
)

const (
	fieldID         = "id"
	fieldPrincipal  = "principal"
	fieldPhone      = "phone"
	fieldIdentifier = "identifier"
	fieldGivenName  = "given_name"
	fieldFamilyName = "family_name"
	fieldAttributes = "attributes"
	fieldCreatedAt  = "created_at"
)

// buildHashFields converts a domain Patient into a flat map[string]string for HSET.
// Free-form attributes are packed into a single JSON field.
func buildHashFields(p *dompat.Patient) (map[string]string, error) {
	m := map[string]string{
		fieldID:         p.ID(),
		fieldPrincipal:  p.Principal(),
		fieldPhone:      p.Phone(),
		fieldIdentifier: p.Identifier(),
		fieldGivenName:  p.GivenName(),
		fieldFamilyName: p.FamilyName(),
		fieldCreatedAt:  strconv.FormatInt(p.CreatedAt(), 10),
	}
	if attrs := p.Attributes(); len(attrs) > 0 {
		data, err := json.Marshal(attrs)
		if err != nil {
			return nil, fmt.Errorf("marshal attributes: %w", err)
		}
		m[fieldAttributes] = string(data)
	}
	return m, nil
}

// parseHashFields converts a flat hash map back into a domain Patient.
func parseHashFields(id string, m map[string]string) (dompat.Patient, error) {
	createdAt, err := strconv.ParseInt(m[fieldCreatedAt], 10, 64)
	if err != nil {
		return dompat.Patient{}, fmt.Errorf("parse created_at for %s: %w", id, err)
	}

	var attrs map[string]string
	if raw := m[fieldAttributes]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
			return dompat.Patient{}, fmt.Errorf("unmarshal attributes for %s: %w", id, err)
		}
	}

	return dompat.Reconstruct(
		id,
		m[fieldPrincipal],
		m[fieldPhone],
		m[fieldIdentifier],
		m[fieldGivenName],
		m[fieldFamilyName],
		attrs,
		createdAt,
	), nil
}
