package search

import (
	"sync"

	"go.uber.org/zap"
)

// Service owns one search session per principal. Sessions are created
// lazily and live for the process lifetime; Clear empties a session
// without discarding it.
type Service struct {
	repo     Repository
	cache    EntityCache
	logger   *zap.Logger
	pageSize int

	mu       sync.Mutex
	sessions map[string]*Session
}

// New creates a search service. pageSize is the per-strategy page limit.
func New(repo Repository, cache EntityCache, logger *zap.Logger, pageSize int) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		logger:   logger,
		pageSize: pageSize,
		sessions: make(map[string]*Session),
	}
}

// Session returns the principal's session, creating it on first use.
func (s *Service) Session(principal string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[principal]
	if !ok {
		sess = newSession(principal, s.repo, s.cache, s.logger, s.pageSize)
		s.sessions[principal] = sess
	}
	return sess
}
