package search

import (
	"sort"

	"github.com/clinicore/chartfind/internal/domain/patient"
	"github.com/clinicore/chartfind/internal/domain/search/page"
)

// merge combines strategy pages into one deduplicated list ordered by
// creation time, newest first. The first occurrence of an identity wins;
// later duplicates are dropped. The sort is stable so equal timestamps
// keep their dedup-insertion order across runs.
func merge(pages []page.Page) []patient.Patient {
	seen := make(map[string]struct{})
	out := make([]patient.Patient, 0)

	for _, pg := range pages {
		for _, p := range pg.Patients() {
			if _, dup := seen[p.ID()]; dup {
				continue
			}
			seen[p.ID()] = struct{}{}
			out = append(out, p)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt() > out[j].CreatedAt()
	})
	return out
}

// filterSeen drops patients whose identity is already recorded in seen and
// records the survivors. Used by loadMore so overlapping strategies cannot
// re-surface an entity already shown on an earlier page.
func filterSeen(patients []patient.Patient, seen map[string]struct{}) []patient.Patient {
	out := patients[:0]
	for _, p := range patients {
		if _, dup := seen[p.ID()]; dup {
			continue
		}
		seen[p.ID()] = struct{}{}
		out = append(out, p)
	}
	return out
}
