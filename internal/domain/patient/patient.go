package patient

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	principalRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	digitsRegex    = regexp.MustCompile(`^[0-9]*$`)
)

// MaxAttributeSize is the maximum size of a single free-form attribute value.
const MaxAttributeSize = 4096

// Patient is the searchable patient record (immutable value object).
// Identity is "<principal>:<suffix>" so the owning principal is provable
// from the identity alone.
type Patient struct {
	id         string
	principal  string
	phone      string
	identifier string
	givenName  string
	familyName string
	attributes map[string]string
	createdAt  int64 // unix millis, ordering key for merged results
}

// New validates and creates a Patient.
// Phone must be digits only (callers normalize formatting first).
// Family name is required; phone and identifier are optional.
func New(
	id, principal, phone, identifier, givenName, familyName string,
	attributes map[string]string, createdAt int64,
) (Patient, error) {
	if principal == "" || !principalRegex.MatchString(principal) {
		return Patient{}, fmt.Errorf("principal must be alphanumeric with underscores and hyphens")
	}
	if id == "" {
		return Patient{}, fmt.Errorf("patient ID is required")
	}
	if !strings.HasPrefix(id, principal+":") {
		return Patient{}, fmt.Errorf("patient ID %q does not encode principal %q", id, principal)
	}
	if !digitsRegex.MatchString(phone) {
		return Patient{}, fmt.Errorf("phone must contain digits only, got %q", phone)
	}
	if familyName == "" {
		return Patient{}, fmt.Errorf("family name is required")
	}
	if createdAt <= 0 {
		return Patient{}, fmt.Errorf("creation timestamp is required")
	}
	for k, v := range attributes {
		if len(v) > MaxAttributeSize {
			return Patient{}, fmt.Errorf("attribute %q too large (max %d bytes)", k, MaxAttributeSize)
		}
	}

	return Patient{
		id:         id,
		principal:  principal,
		phone:      phone,
		identifier: strings.ToLower(identifier),
		givenName:  givenName,
		familyName: familyName,
		attributes: cloneAttributes(attributes),
		createdAt:  createdAt,
	}, nil
}

// Reconstruct creates a Patient without validation (storage hydration).
func Reconstruct(
	id, principal, phone, identifier, givenName, familyName string,
	attributes map[string]string, createdAt int64,
) Patient {
	return Patient{
		id: id, principal: principal, phone: phone, identifier: identifier,
		givenName: givenName, familyName: familyName,
		attributes: attributes, createdAt: createdAt,
	}
}

// OwnerOf extracts the owning principal encoded in a patient identity.
// Returns "" if the identity carries no principal prefix.
func OwnerOf(id string) string {
	owner, _, ok := strings.Cut(id, ":")
	if !ok {
		return ""
	}
	return owner
}

// ID returns the patient identity.
func (p *Patient) ID() string { return p.id }

// Principal returns the owning principal.
func (p *Patient) Principal() string { return p.principal }

// Phone returns the digits-only phone number (exact/prefix searchable).
func (p *Patient) Phone() string { return p.phone }

// Identifier returns the lowercase-normalized family/record identifier.
func (p *Patient) Identifier() string { return p.identifier }

// GivenName returns the given name as entered.
func (p *Patient) GivenName() string { return p.givenName }

// FamilyName returns the family name as entered.
func (p *Patient) FamilyName() string { return p.familyName }

// Attributes returns the free-form attributes.
func (p *Patient) Attributes() map[string]string { return p.attributes }

// CreatedAt returns the creation timestamp in unix millis.
func (p *Patient) CreatedAt() int64 { return p.createdAt }

// SearchName returns the precomputed lowercase name field used by the
// name-prefix and contains strategies: "<family> <given>".
func (p *Patient) SearchName() string {
	return NormalizeName(p.familyName, p.givenName)
}

// NormalizeName lowercases and joins family and given names for indexing.
func NormalizeName(familyName, givenName string) string {
	name := strings.TrimSpace(familyName)
	if g := strings.TrimSpace(givenName); g != "" {
		name += " " + g
	}
	return strings.ToLower(name)
}

// NormalizePhone strips everything but digits from a phone value.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func cloneAttributes(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
