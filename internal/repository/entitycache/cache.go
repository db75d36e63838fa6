// Package entitycache holds a TTL-bounded, principal-scoped in-memory
// cache of patient records keyed by identity.
package entitycache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	dompat "github.com/clinicore/chartfind/internal/domain/patient"
)

type entry struct {
	patient   dompat.Patient
	principal string
	expiresAt time.Time
}

// Cache is an LRU of patient records with per-entry expiry. Entries past
// their TTL behave as absent; they are dropped lazily on lookup. A lookup
// under the wrong principal is indistinguishable from a miss.
type Cache struct {
	entries    *lru.Cache[string, entry]
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger

	now func() time.Time // replaced in tests
}

// New creates an entity cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(size int, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	entries, _ := lru.New[string, entry](size)
	return &Cache{
		entries:    entries,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
		now:        time.Now,
	}
}

// Get returns the cached patient for an identity, scoped to the requesting
// principal. Expired entries and entries owned by another principal are
// misses.
func (c *Cache) Get(id, principal string) (dompat.Patient, bool) {
	e, ok := c.entries.Get(id)
	if !ok {
		c.incCache("miss")
		return dompat.Patient{}, false
	}
	if c.now().After(e.expiresAt) {
		c.entries.Remove(id)
		c.incCache("miss")
		return dompat.Patient{}, false
	}
	if e.principal != principal {
		c.logger.Warn("Cross-principal cache lookup",
			zap.String("id", id),
			zap.String("principal", principal),
		)
		c.incCache("miss")
		return dompat.Patient{}, false
	}

	c.incCache("hit")
	return e.patient, true
}

// Put stores a patient under its identity with a fresh TTL.
func (c *Cache) Put(p dompat.Patient) {
	c.entries.Add(p.ID(), entry{
		patient:   p,
		principal: p.Principal(),
		expiresAt: c.now().Add(c.ttl),
	})
}

// Invalidate removes a single identity.
func (c *Cache) Invalidate(id string) {
	c.entries.Remove(id)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.entries.Purge()
}

// Len returns the number of resident entries, including expired ones not
// yet dropped.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
