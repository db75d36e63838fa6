// Package page holds the result of one query strategy execution.
package page

import (
	"github.com/clinicore/chartfind/internal/domain/patient"
	"github.com/clinicore/chartfind/internal/domain/search/cursor"
)

// Page is one strategy's result: an ordered list of patients, the
// continuation cursor (zero when the strategy is exhausted) and a
// "more available" hint computed without a second round trip.
type Page struct {
	patients []patient.Patient
	next     cursor.Cursor
	hasMore  bool
}

// New creates a page.
func New(patients []patient.Patient, next cursor.Cursor, hasMore bool) Page {
	return Page{patients: patients, next: next, hasMore: hasMore}
}

// Empty is the page a failed strategy degrades to.
func Empty() Page {
	return Page{}
}

// Patients returns the ordered result list.
func (p Page) Patients() []patient.Patient { return p.patients }

// Next returns the continuation cursor.
func (p Page) Next() cursor.Cursor { return p.next }

// HasMore reports whether another page is available.
func (p Page) HasMore() bool { return p.hasMore }
