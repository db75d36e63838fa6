package redis

import (
	"context"

	"github.com/clinicore/chartfind/internal/db"
)

// IndexAdd inserts a member into a lex-ordered index (ZADD with zero score).
func (s *Store) IndexAdd(ctx context.Context, key, member string) error {
	cmd := s.b().Zadd().Key(key).ScoreMember().ScoreMember(0, member).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZAdd, Err: err}
	}
	return nil
}

// IndexRemove removes a member from an index.
func (s *Store) IndexRemove(ctx context.Context, key, member string) error {
	cmd := s.b().Zrem().Key(key).Member(member).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZRem, Err: err}
	}
	return nil
}

// LexRange returns up to limit members within the lex bounds via
// ZRANGE ... BYLEX. A missing index key yields an empty slice.
func (s *Store) LexRange(ctx context.Context, key, min, max string, limit int) ([]string, error) {
	cmd := s.b().Zrange().Key(key).Min(min).Max(max).Bylex().Limit(0, int64(limit)).Build()
	members, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRange, Err: err}
	}
	return members, nil
}

// LexScan iterates index members matching a glob pattern via ZSCAN.
// ZSCAN returns member/score pairs; scores are discarded.
func (s *Store) LexScan(
	ctx context.Context, key, pattern string, cursor uint64, count int,
) ([]string, uint64, error) {
	cmd := s.b().Zscan().Key(key).Cursor(cursor).Match(pattern).Count(int64(count)).Build()
	entry, err := s.do(ctx, cmd).AsScanEntry()
	if err != nil {
		return nil, 0, &db.Error{Op: db.OpZScan, Err: err}
	}

	members := make([]string, 0, len(entry.Elements)/2)
	for i := 0; i+1 < len(entry.Elements); i += 2 {
		members = append(members, entry.Elements[i])
	}
	return members, entry.Cursor, nil
}
