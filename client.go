package chartfind

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clinicore/chartfind/internal/db"
	dbRedis "github.com/clinicore/chartfind/internal/db/redis"
	"github.com/clinicore/chartfind/internal/repository/entitycache"
	patientrepo "github.com/clinicore/chartfind/internal/repository/patient"
	patientuc "github.com/clinicore/chartfind/internal/usecase/patient"
	searchuc "github.com/clinicore/chartfind/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultPageSize         = 20
	defaultCacheSize        = 4096
	defaultCacheTTL         = 5 * time.Minute
)

// Client is the chartfind SDK entry point: an embedded search engine over
// a shared database, without the HTTP server in between.
type Client struct {
	store      db.Store
	searchSvc  *searchuc.Service
	patientSvc *patientuc.Service
}

// New creates a chartfind Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		pageSize:  defaultPageSize,
		cacheSize: defaultCacheSize,
		cacheTTL:  defaultCacheTTL,
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("chartfind: database address required (use WithRedis or WithAddrs)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("chartfind: create store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("chartfind: database not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func wireClient(store db.Store, cfg *clientConfig) *Client {
	repo := patientrepo.New(store)
	cache := entitycache.New(cfg.cacheSize, cfg.cacheTTL, nil, cfg.logger)

	return &Client{
		store:      store,
		searchSvc:  searchuc.New(repo, cache, cfg.logger, cfg.pageSize),
		patientSvc: patientuc.New(repo, cache),
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Patients returns the patient record service scoped to a principal.
func (c *Client) Patients(principal string) *PatientService {
	return &PatientService{principal: principal, svc: c.patientSvc}
}

// Search returns the principal's interactive search session.
func (c *Client) Search(principal string) *SearchSession {
	return &SearchSession{sess: c.searchSvc.Session(principal)}
}
