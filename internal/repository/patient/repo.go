package patient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/clinicore/chartfind/internal/db"
	"github.com/clinicore/chartfind/internal/domain"
	dompat "github.com/clinicore/chartfind/internal/domain/patient"
	"github.com/clinicore/chartfind/internal/domain/search/cursor"
	"github.com/clinicore/chartfind/internal/domain/search/page"
)

// memberSep separates the indexed value from the patient identity inside
// an index member. 0x1e (record separator) never appears in normalized
// phone numbers, identifiers or names.
const memberSep = "\x1e"

// highSentinel bounds a prefix range from above: every member starting
// with the prefix sorts below prefix+0xff.
const highSentinel = "\xff"

// scanBatch is the COUNT hint passed to ZSCAN by the contains strategy.
const scanBatch = 256

// store is the consumer interface for patient documents and indexes (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	IndexAdd(ctx context.Context, key, member string) error
	IndexRemove(ctx context.Context, key, member string) error
	LexRange(ctx context.Context, key, min, max string, limit int) ([]string, error)
	LexScan(ctx context.Context, key, pattern string, cursor uint64, count int) ([]string, uint64, error)
}

// Repo implements usecase/search.Repository and usecase/patient.Repository.
// Patients live in hashes; each searchable field is mirrored into a
// per-principal lex-ordered index whose members embed the patient identity.
type Repo struct {
	store store
}

// New creates a patient repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// GetByID returns a patient by identity.
func (r *Repo) GetByID(ctx context.Context, id string) (dompat.Patient, error) {
	m, err := r.store.HGetAll(ctx, patientKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return dompat.Patient{}, domain.ErrPatientNotFound
		}
		return dompat.Patient{}, fmt.Errorf("hgetall %s: %w", id, err)
	}
	return parseHashFields(id, m)
}

// Upsert creates or updates a patient and keeps its index entries in sync.
// Returns true if the patient was created.
func (r *Repo) Upsert(ctx context.Context, p *dompat.Patient) (bool, error) {
	var stale []indexEntry
	created := true

	prev, err := r.GetByID(ctx, p.ID())
	switch {
	case err == nil:
		created = false
		stale = indexEntries(&prev)
	case errors.Is(err, domain.ErrPatientNotFound):
	default:
		return false, err
	}

	fields, err := buildHashFields(p)
	if err != nil {
		return false, err
	}
	if err := r.store.HSet(ctx, patientKey(p.ID()), fields); err != nil {
		return false, fmt.Errorf("hset %s: %w", p.ID(), err)
	}

	fresh := indexEntries(p)
	for _, e := range stale {
		if containsEntry(fresh, e) {
			continue
		}
		if err := r.store.IndexRemove(ctx, e.key, e.member); err != nil {
			return false, fmt.Errorf("index remove %s: %w", e.key, err)
		}
	}
	for _, e := range fresh {
		if err := r.store.IndexAdd(ctx, e.key, e.member); err != nil {
			return false, fmt.Errorf("index add %s: %w", e.key, err)
		}
	}

	return created, nil
}

// Delete removes a patient and its index entries.
func (r *Repo) Delete(ctx context.Context, id string) error {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for _, e := range indexEntries(&p) {
		if err := r.store.IndexRemove(ctx, e.key, e.member); err != nil {
			return fmt.Errorf("index remove %s: %w", e.key, err)
		}
	}
	if err := r.store.Del(ctx, patientKey(id)); err != nil {
		return fmt.Errorf("del %s: %w", id, err)
	}
	return nil
}

// PhonePrefix returns patients whose phone number starts with term.
func (r *Repo) PhonePrefix(
	ctx context.Context, principal, term string, cur cursor.Cursor, limit int,
) (page.Page, error) {
	return r.lexPrefix(ctx, indexKey(principal, "phone"), term, cur, limit)
}

// IdentifierPrefix returns patients whose identifier starts with term.
func (r *Repo) IdentifierPrefix(
	ctx context.Context, principal, term string, cur cursor.Cursor, limit int,
) (page.Page, error) {
	return r.lexPrefix(ctx, indexKey(principal, "ident"), strings.ToLower(term), cur, limit)
}

// NamePrefix returns patients whose normalized name starts with term.
func (r *Repo) NamePrefix(
	ctx context.Context, principal, term string, cur cursor.Cursor, limit int,
) (page.Page, error) {
	return r.lexPrefix(ctx, indexKey(principal, "name"), strings.ToLower(term), cur, limit)
}

// lexPrefix runs one ZRANGE BYLEX page over a prefix window. The window
// starts inclusive at the term (or exclusive after the cursor's last member
// when resuming) and ends before term+highSentinel. One extra member is
// fetched to detect whether more pages exist.
func (r *Repo) lexPrefix(
	ctx context.Context, key, term string, cur cursor.Cursor, limit int,
) (page.Page, error) {
	min := "[" + term
	if !cur.IsZero() {
		last, err := cur.Payload()
		if err != nil {
			return page.Empty(), err
		}
		min = "(" + string(last)
	}
	max := "(" + term + highSentinel

	members, err := r.store.LexRange(ctx, key, min, max, limit+1)
	if err != nil {
		return page.Empty(), fmt.Errorf("lex range %s: %w", key, err)
	}

	hasMore := len(members) > limit
	if hasMore {
		members = members[:limit]
	}

	patients, err := r.hydrate(ctx, members)
	if err != nil {
		return page.Empty(), err
	}

	var next cursor.Cursor
	if hasMore {
		next = cursor.New([]byte(members[len(members)-1]))
	}
	return page.New(patients, next, hasMore), nil
}

// NameContains returns patients whose normalized name contains term
// anywhere. Implemented as a ZSCAN over the name index; the cursor wraps
// the scan position of the batch to resume at plus the number of matches
// already returned from it, so a batch denser than the page limit still
// advances one page at a time.
func (r *Repo) NameContains(
	ctx context.Context, principal, term string, cur cursor.Cursor, limit int,
) (page.Page, error) {
	scanCur, skip, err := scanCursor(cur)
	if err != nil {
		return page.Empty(), err
	}

	key := indexKey(principal, "name")
	needle := strings.ToLower(term)
	pattern := "*" + escapeGlob(needle) + "*" + memberSep + "*"

	var matched []string
	hasMore := false
	var next cursor.Cursor

	first := true
	for {
		batchStart := scanCur
		members, nextCur, err := r.store.LexScan(ctx, key, pattern, scanCur, scanBatch)
		if err != nil {
			return page.Empty(), fmt.Errorf("lex scan %s: %w", key, err)
		}
		scanCur = nextCur

		var batch []string
		for _, m := range members {
			name, _, ok := strings.Cut(m, memberSep)
			if !ok || !strings.Contains(name, needle) {
				continue
			}
			batch = append(batch, m)
		}

		// consumed counts matches of this batch already handed to the
		// caller, across calls: the resumed skip plus emissions below.
		consumed := 0
		if first {
			first = false
			if skip > len(batch) {
				// The index shrank since the cursor was minted.
				skip = len(batch)
			}
			batch = batch[skip:]
			consumed = skip
		}

		overflow := false
		for _, m := range batch {
			if len(matched) == limit {
				overflow = true
				break
			}
			matched = append(matched, m)
			consumed++
		}
		if overflow {
			hasMore = true
			next = cursor.New([]byte(strconv.FormatUint(batchStart, 10) + ":" + strconv.Itoa(consumed)))
			break
		}
		if scanCur == 0 {
			break
		}
	}

	patients, err := r.hydrate(ctx, matched)
	if err != nil {
		return page.Empty(), err
	}
	return page.New(patients, next, hasMore), nil
}

// hydrate turns index members into patients with one pipelined multi-get.
// Members whose document vanished between index read and fetch are skipped.
func (r *Repo) hydrate(ctx context.Context, members []string) ([]dompat.Patient, error) {
	if len(members) == 0 {
		return nil, nil
	}

	ids := make([]string, len(members))
	keys := make([]string, len(members))
	for i, m := range members {
		_, id, ok := strings.Cut(m, memberSep)
		if !ok {
			return nil, fmt.Errorf("malformed index member %q", m)
		}
		ids[i] = id
		keys[i] = patientKey(id)
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hydrate members: %w", err)
	}

	patients := make([]dompat.Patient, 0, len(hashes))
	for i, m := range hashes {
		if m == nil {
			continue
		}
		p, err := parseHashFields(ids[i], m)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, nil
}

type indexEntry struct {
	key    string
	member string
}

// indexEntries lists the index members a patient contributes. Empty
// optional fields contribute nothing.
func indexEntries(p *dompat.Patient) []indexEntry {
	entries := make([]indexEntry, 0, 3)
	if phone := p.Phone(); phone != "" {
		entries = append(entries, indexEntry{
			key:    indexKey(p.Principal(), "phone"),
			member: phone + memberSep + p.ID(),
		})
	}
	if ident := p.Identifier(); ident != "" {
		entries = append(entries, indexEntry{
			key:    indexKey(p.Principal(), "ident"),
			member: ident + memberSep + p.ID(),
		})
	}
	entries = append(entries, indexEntry{
		key:    indexKey(p.Principal(), "name"),
		member: p.SearchName() + memberSep + p.ID(),
	})
	return entries
}

func containsEntry(entries []indexEntry, e indexEntry) bool {
	for _, x := range entries {
		if x == e {
			return true
		}
	}
	return false
}

// scanCursor unpacks a contains cursor into the ZSCAN position of the
// batch to resume at and the number of its matches already returned.
func scanCursor(cur cursor.Cursor) (uint64, int, error) {
	if cur.IsZero() {
		return 0, 0, nil
	}
	raw, err := cur.Payload()
	if err != nil {
		return 0, 0, err
	}
	posPart, skipPart, ok := strings.Cut(string(raw), ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: malformed scan cursor %q", domain.ErrInvalidCursor, raw)
	}
	pos, err := strconv.ParseUint(posPart, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", domain.ErrInvalidCursor, err)
	}
	skip, err := strconv.Atoi(skipPart)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", domain.ErrInvalidCursor, err)
	}
	if skip < 0 {
		return 0, 0, fmt.Errorf("%w: negative skip in scan cursor %q", domain.ErrInvalidCursor, raw)
	}
	return pos, skip, nil
}

func patientKey(id string) string {
	return fmt.Sprintf("%spatient:%s", domain.KeyPrefix, id)
}

func indexKey(principal, field string) string {
	return fmt.Sprintf("%sidx:%s:%s", domain.KeyPrefix, principal, field)
}

// escapeGlob neutralizes glob metacharacters in a user term before it is
// embedded into a ZSCAN MATCH pattern.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
