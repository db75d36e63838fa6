package chartfind

import (
	"context"

	dompat "github.com/clinicore/chartfind/internal/domain/patient"
	searchuc "github.com/clinicore/chartfind/internal/usecase/search"
)

// SearchSession is a principal's interactive search session. Results from
// all query strategies are merged, deduplicated and ordered newest first.
type SearchSession struct {
	sess *searchuc.Session
}

// Search starts a new search for the term, replacing any previous results.
// An empty term clears the session.
func (s *SearchSession) Search(ctx context.Context, term string) {
	s.sess.Search(ctx, term)
}

// LoadMore extends the result list with the next page from every strategy
// that is not yet exhausted. A no-op while a load is in flight or when
// nothing is left to fetch.
func (s *SearchSession) LoadMore(ctx context.Context) {
	s.sess.LoadMore(ctx)
}

// Clear resets the session and publishes an empty result list.
func (s *SearchSession) Clear() {
	s.sess.Clear()
}

// Subscribe registers a callback invoked with the merged result list on
// every publish. The latest list is replayed immediately on registration.
func (s *SearchSession) Subscribe(fn func(patients []Patient)) {
	s.sess.Subscribe(func(patients []dompat.Patient) {
		fn(fromDomainList(patients))
	})
}

// Results returns a copy of the current merged result list.
func (s *SearchSession) Results() []Patient {
	return fromDomainList(s.sess.Results())
}

// Term returns the session's current search term.
func (s *SearchSession) Term() string {
	return s.sess.Term()
}

// HasMore reports whether any strategy still has pages to serve.
func (s *SearchSession) HasMore() bool {
	return s.sess.HasMore()
}

// IsLoading reports whether a LoadMore is in flight.
func (s *SearchSession) IsLoading() bool {
	return s.sess.IsLoading()
}

// Degraded reports whether the last search failed across every strategy.
func (s *SearchSession) Degraded() bool {
	return s.sess.Degraded()
}

func fromDomainList(patients []dompat.Patient) []Patient {
	out := make([]Patient, len(patients))
	for i := range patients {
		out[i] = fromDomain(&patients[i])
	}
	return out
}
