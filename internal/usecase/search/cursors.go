package search

import "github.com/clinicore/chartfind/internal/domain/search/cursor"

// slot tracks one strategy's pagination state. A dead slot means the
// strategy is permanently exhausted for this session and must never be
// re-run, not even with a fresh cursor.
type slot struct {
	name string
	cur  cursor.Cursor
	live bool
}

// cursorSet holds one slot per strategy active in the session's mode.
type cursorSet struct {
	slots []slot
}

// newCursorSet creates fresh live slots for the named strategies.
func newCursorSet(names []string) *cursorSet {
	slots := make([]slot, len(names))
	for i, name := range names {
		slots[i] = slot{name: name, live: true}
	}
	return &cursorSet{slots: slots}
}

// update records a strategy's continuation state after one execution.
func (c *cursorSet) update(name string, next cursor.Cursor, hasMore bool) {
	for i := range c.slots {
		if c.slots[i].name != name {
			continue
		}
		c.slots[i].cur = next
		c.slots[i].live = hasMore
		return
	}
}

// cursorFor returns the continuation cursor for a strategy.
func (c *cursorSet) cursorFor(name string) cursor.Cursor {
	for _, s := range c.slots {
		if s.name == name {
			return s.cur
		}
	}
	return cursor.Zero
}

// live returns the names of strategies that still have pages to serve.
func (c *cursorSet) live() []string {
	var names []string
	for _, s := range c.slots {
		if s.live {
			names = append(names, s.name)
		}
	}
	return names
}

// hasMore reports whether any strategy still has pages to serve.
func (c *cursorSet) hasMore() bool {
	for _, s := range c.slots {
		if s.live {
			return true
		}
	}
	return false
}
