package search

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clinicore/chartfind/internal/domain/search/cursor"
	"github.com/clinicore/chartfind/internal/domain/search/mode"
	"github.com/clinicore/chartfind/internal/domain/search/page"
	"github.com/clinicore/chartfind/internal/metrics"
)

// Strategy names, used for cursor slots, logs and metrics labels.
const (
	StrategyPhonePrefix      = "phone_prefix"
	StrategyIdentifierPrefix = "identifier_prefix"
	StrategyNamePrefix       = "name_prefix"
	StrategyNameContains     = "name_contains"
)

type strategyFn func(ctx context.Context, principal, term string, cur cursor.Cursor, limit int) (page.Page, error)

type strategy struct {
	name string
	run  strategyFn
}

// strategiesFor maps a session mode onto its strategy set. Numeric terms
// only make sense against the phone index; text terms fan out across the
// identifier and name indexes plus the substring fallback.
func strategiesFor(m mode.Mode, repo Repository) []strategy {
	if m == mode.Numeric {
		return []strategy{
			{name: StrategyPhonePrefix, run: repo.PhonePrefix},
		}
	}
	return []strategy{
		{name: StrategyIdentifierPrefix, run: repo.IdentifierPrefix},
		{name: StrategyNamePrefix, run: repo.NamePrefix},
		{name: StrategyNameContains, run: repo.NameContains},
	}
}

// execution is the outcome of one strategy run within a fan-out.
type execution struct {
	name   string
	page   page.Page
	failed bool
}

// fanOut executes the strategies concurrently and settles all of them.
// A failing strategy degrades to an empty exhausted page with a logged
// warning; it never aborts its siblings or the fan-out.
func fanOut(
	ctx context.Context,
	strats []strategy,
	principal, term string,
	curs []cursor.Cursor,
	limit int,
	logger *zap.Logger,
) []execution {
	execs := make([]execution, len(strats))

	var g errgroup.Group
	for i, st := range strats {
		i, st := i, st
		g.Go(func() error {
			pg, err := st.run(ctx, principal, term, curs[i], limit)
			if err != nil {
				logger.Warn("Search strategy failed",
					zap.String("strategy", st.name),
					zap.String("principal", principal),
					zap.Error(err),
				)
				metrics.StrategyFailuresTotal.WithLabelValues(st.name).Inc()
				execs[i] = execution{name: st.name, page: page.Empty(), failed: true}
				return nil
			}
			execs[i] = execution{name: st.name, page: pg}
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors

	return execs
}
