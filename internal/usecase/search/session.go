package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clinicore/chartfind/internal/domain/patient"
	"github.com/clinicore/chartfind/internal/domain/search/cursor"
	"github.com/clinicore/chartfind/internal/domain/search/mode"
	"github.com/clinicore/chartfind/internal/domain/search/page"
	"github.com/clinicore/chartfind/internal/metrics"
)

// Subscriber receives the session's merged result list on every publish.
type Subscriber func(patients []patient.Patient)

// Session is one principal's search session: the current term, its mode
// classification, the merged result list, per-strategy cursors and the
// subscriber list. A new Search replaces the session state wholesale;
// LoadMore only extends it.
//
// There is no sequencing guard between overlapping Search calls: if two
// searches race, the one that commits last wins, even if it started
// earlier. Callers are expected to debounce.
type Session struct {
	principal string
	repo      Repository
	cache     EntityCache
	logger    *zap.Logger
	pageSize  int

	mu          sync.Mutex
	gen         uint64
	term        string
	mode        mode.Mode
	results     []patient.Patient
	seen        map[string]struct{}
	cursors     *cursorSet
	loading     bool
	degraded    bool
	subscribers []Subscriber
}

func newSession(principal string, repo Repository, cache EntityCache, logger *zap.Logger, pageSize int) *Session {
	return &Session{
		principal: principal,
		repo:      repo,
		cache:     cache,
		logger:    logger,
		pageSize:  pageSize,
	}
}

// Search starts a new session for the term: classifies it once, resets all
// cursor slots, fans out the mode's strategies and publishes the merged
// result. An empty term clears the session instead.
func (s *Session) Search(ctx context.Context, term string) {
	term = strings.TrimSpace(term)
	if term == "" {
		s.Clear()
		return
	}

	m := mode.Classify(term)
	metrics.SearchesTotal.WithLabelValues(m.String()).Inc()

	strats := strategiesFor(m, s.repo)
	fresh := make([]cursor.Cursor, len(strats))

	start := time.Now()
	execs := fanOut(ctx, strats, s.principal, term, fresh, s.pageSize, s.logger)
	metrics.SearchDuration.WithLabelValues(m.String()).Observe(time.Since(start).Seconds())

	pages := make([]page.Page, len(execs))
	failures := 0
	for i, e := range execs {
		pages[i] = e.page
		if e.failed {
			failures++
		}
	}
	s.writeThrough(pages)

	merged := merge(pages)
	names := make([]string, len(strats))
	for i, st := range strats {
		names[i] = st.name
	}

	s.mu.Lock()
	s.gen++
	s.term = term
	s.mode = m
	s.results = merged
	s.seen = make(map[string]struct{}, len(merged))
	for _, p := range merged {
		s.seen[p.ID()] = struct{}{}
	}
	s.cursors = newCursorSet(names)
	for _, e := range execs {
		s.cursors.update(e.name, e.page.Next(), e.page.HasMore())
	}
	s.loading = false
	s.degraded = failures > 0 && failures == len(execs)
	if s.degraded {
		s.logger.Error("All search strategies failed",
			zap.String("principal", s.principal),
			zap.String("mode", m.String()),
		)
	}
	snapshot, subs := s.stateLocked()
	s.mu.Unlock()

	notify(subs, snapshot)
}

// LoadMore re-executes only the strategies whose cursor slot is still
// live, filters the fetched entities against identities already shown and
// appends the remainder. A no-op while another load is in flight or when
// every strategy is exhausted. A load whose session was cleared or
// replaced by a new Search mid-flight discards its pages.
func (s *Session) LoadMore(ctx context.Context) {
	s.mu.Lock()
	if s.loading || s.cursors == nil || !s.cursors.hasMore() {
		s.mu.Unlock()
		return
	}
	s.loading = true
	gen := s.gen
	term, m := s.term, s.mode

	liveNames := s.cursors.live()
	strats := make([]strategy, 0, len(liveNames))
	curs := make([]cursor.Cursor, 0, len(liveNames))
	for _, st := range strategiesFor(m, s.repo) {
		for _, name := range liveNames {
			if st.name == name {
				strats = append(strats, st)
				curs = append(curs, s.cursors.cursorFor(name))
			}
		}
	}
	s.mu.Unlock()

	execs := fanOut(ctx, strats, s.principal, term, curs, s.pageSize, s.logger)

	pages := make([]page.Page, len(execs))
	for i, e := range execs {
		pages[i] = e.page
	}
	s.writeThrough(pages)

	appended := merge(pages)

	s.mu.Lock()
	if s.gen != gen {
		// The session moved on while the load was in flight; its pages
		// belong to a dead generation. Clear or Search already reset the
		// loading flag with the rest of the state.
		s.mu.Unlock()
		return
	}
	s.loading = false
	s.results = append(s.results, filterSeen(appended, s.seen)...)
	for _, e := range execs {
		s.cursors.update(e.name, e.page.Next(), e.page.HasMore())
	}
	snapshot, subs := s.stateLocked()
	s.mu.Unlock()

	notify(subs, snapshot)
}

// Clear resets the session and publishes an empty list.
func (s *Session) Clear() {
	s.mu.Lock()
	s.gen++
	s.term = ""
	s.mode = ""
	s.results = nil
	s.seen = nil
	s.cursors = nil
	s.loading = false
	s.degraded = false
	snapshot, subs := s.stateLocked()
	s.mu.Unlock()

	notify(subs, snapshot)
}

// Subscribe registers a callback for future publishes and replays the
// latest result list to it immediately.
func (s *Session) Subscribe(fn Subscriber) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	snapshot, _ := s.stateLocked()
	s.mu.Unlock()

	fn(snapshot)
}

// Results returns a copy of the current merged result list (polling
// accessor for callers that do not subscribe).
func (s *Session) Results() []patient.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]patient.Patient, len(s.results))
	copy(out, s.results)
	return out
}

// Term returns the session's current term.
func (s *Session) Term() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.term
}

// HasMore reports whether any strategy still has pages to serve.
func (s *Session) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursors != nil && s.cursors.hasMore()
}

// IsLoading reports whether a LoadMore is in flight.
func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Degraded reports whether the last search failed across every strategy
// (published list was empty due to errors, not absence of matches).
func (s *Session) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// writeThrough populates the entity cache with every fetched entity.
func (s *Session) writeThrough(pages []page.Page) {
	for _, pg := range pages {
		for _, p := range pg.Patients() {
			s.cache.Put(p)
		}
	}
}

// stateLocked snapshots the result list and subscriber list. Callers must
// hold the mutex; subscribers are invoked after it is released.
func (s *Session) stateLocked() ([]patient.Patient, []Subscriber) {
	snapshot := make([]patient.Patient, len(s.results))
	copy(snapshot, s.results)
	subs := make([]Subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	return snapshot, subs
}

func notify(subs []Subscriber, snapshot []patient.Patient) {
	for _, fn := range subs {
		fn(snapshot)
	}
}
