package core

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// idWidth is the zero-padded width of the numeric part of generated ids.
const idWidth = 3

// Store is the generic CRUD engine over spreadsheet tabs. It knows nothing
// about entities: every operation is driven by a Table description.
//
// Every mutation re-reads the whole tab, locates its target by linear scan
// and writes back by sheet position, holding the table's mutation lock for
// the duration.
type Store struct {
	client TableClient
	locks  *tableLocks
}

// NewStore creates a Store over the given remote table client.
func NewStore(client TableClient) *Store {
	return &Store{client: client, locks: newTableLocks()}
}

// load fetches and parses a whole tab.
func (s *Store) load(ctx context.Context, t Table) ([]string, []row, int, error) {
	grid, err := s.client.Values(ctx, t.Name)
	if err != nil {
		return nil, nil, 0, remoteErr("read", t.Name, err)
	}
	headers, rows, lastUsed, err := parseGrid(t.Name, grid)
	if err != nil {
		return nil, nil, 0, err
	}
	if t.IDField != "" && !contains(headers, t.IDField) {
		return nil, nil, 0, &SchemaError{Table: t.Name, Reason: fmt.Sprintf("id field %q not in header row", t.IDField)}
	}
	return headers, rows, lastUsed, nil
}

// ReadAll returns every live record of a tab in sheet order.
func (s *Store) ReadAll(ctx context.Context, t Table) ([]Record, error) {
	_, rows, _, err := s.load(ctx, t)
	if err != nil {
		return nil, err
	}
	records := make([]Record, len(rows))
	for i, r := range rows {
		records[i] = r.record
	}
	return records, nil
}

// GetByID returns the first live record whose id field equals id.
func (s *Store) GetByID(ctx context.Context, t Table, id string) (Record, error) {
	_, rows, _, err := s.load(ctx, t)
	if err != nil {
		return nil, err
	}
	i := indexOf(rows, t.IDField, id)
	if i < 0 {
		return nil, &NotFoundError{Table: t.Name, Field: t.IDField, Value: id}
	}
	return rows[i].record, nil
}

// Find returns every live record whose field equals value, in sheet order.
func (s *Store) Find(ctx context.Context, t Table, field, value string) ([]Record, error) {
	_, rows, _, err := s.load(ctx, t)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, r := range rows {
		if r.record[field] == value {
			out = append(out, r.record)
		}
	}
	return out, nil
}

// Add writes rec to the row after the last used row. When rec has no id, a
// new one is generated from the table prefix.
func (s *Store) Add(ctx context.Context, t Table, rec Record) (Change, error) {
	unlock := s.locks.lock(t.Name)
	defer unlock()

	headers, rows, lastUsed, err := s.load(ctx, t)
	if err != nil {
		return Change{}, err
	}

	rec = rec.Clone()
	if rec[t.IDField] == "" {
		rec[t.IDField] = nextID(t.IDPrefix, t.IDField, rows)
	}

	position := lastUsed + 1
	values := ToRow(headers, rec)
	if err := s.client.WriteRow(ctx, t.Name, position, values); err != nil {
		return Change{}, remoteErr("add", t.Name, err)
	}

	return Change{
		Ordinal:  len(rows) + 1,
		Position: position,
		After:    zip(headers, values),
	}, nil
}

// Update merges patch onto the record with the given id and rewrites its
// full row in place. Patch values win; the id field itself is never changed.
func (s *Store) Update(ctx context.Context, t Table, id string, patch Record) (Change, error) {
	unlock := s.locks.lock(t.Name)
	defer unlock()

	headers, rows, _, err := s.load(ctx, t)
	if err != nil {
		return Change{}, err
	}
	i := indexOf(rows, t.IDField, id)
	if i < 0 {
		return Change{}, &NotFoundError{Table: t.Name, Field: t.IDField, Value: id}
	}

	before := rows[i].record
	merged := before.Clone()
	for k, v := range patch {
		if k == t.IDField {
			continue
		}
		merged[k] = v
	}

	values := ToRow(headers, merged)
	if err := s.client.WriteRow(ctx, t.Name, rows[i].position, values); err != nil {
		return Change{}, remoteErr("update", t.Name, err)
	}

	return Change{
		Ordinal:  i + 1,
		Position: rows[i].position,
		Before:   before,
		After:    zip(headers, values),
	}, nil
}

// Delete structurally removes the row with the given id. Later rows shift
// up by one. A missing id leaves the tab untouched.
func (s *Store) Delete(ctx context.Context, t Table, id string) (Change, error) {
	unlock := s.locks.lock(t.Name)
	defer unlock()

	_, rows, _, err := s.load(ctx, t)
	if err != nil {
		return Change{}, err
	}
	i := indexOf(rows, t.IDField, id)
	if i < 0 {
		return Change{}, &NotFoundError{Table: t.Name, Field: t.IDField, Value: id}
	}

	if err := s.client.DeleteRows(ctx, t.Name, []int{rows[i].position}); err != nil {
		return Change{}, remoteErr("delete", t.Name, err)
	}

	return Change{
		Ordinal:  i + 1,
		Position: rows[i].position,
		Before:   rows[i].record,
	}, nil
}

// DeleteMany removes every row whose field equals value in one batch and
// returns the removed records.
func (s *Store) DeleteMany(ctx context.Context, t Table, field, value string) ([]Record, error) {
	return s.DeleteWhere(ctx, t, func(r Record) bool { return r[field] == value })
}

// DeleteWhere removes every row matching match in one batch and returns the
// removed records. Positions are sent in descending order: each structural
// delete shifts the rows below it, so deleting bottom-up keeps the remaining
// positions valid. No remote call is made when nothing matches.
func (s *Store) DeleteWhere(ctx context.Context, t Table, match func(Record) bool) ([]Record, error) {
	changes, err := s.deleteWhere(ctx, t, match)
	if err != nil || len(changes) == 0 {
		return nil, err
	}
	removed := make([]Record, len(changes))
	for i, ch := range changes {
		removed[i] = ch.Before
	}
	return removed, nil
}

// deleteWhere is DeleteWhere reporting each removed row with the ordinal and
// position it had before the batch.
func (s *Store) deleteWhere(ctx context.Context, t Table, match func(Record) bool) ([]Change, error) {
	unlock := s.locks.lock(t.Name)
	defer unlock()

	_, rows, _, err := s.load(ctx, t)
	if err != nil {
		return nil, err
	}

	var (
		positions []int
		removed   []Change
	)
	for i, r := range rows {
		if match(r.record) {
			positions = append(positions, r.position)
			removed = append(removed, Change{Ordinal: i + 1, Position: r.position, Before: r.record})
		}
	}
	if len(positions) == 0 {
		return nil, nil
	}

	sort.Sort(sort.Reverse(sort.IntSlice(positions)))
	if err := s.client.DeleteRows(ctx, t.Name, positions); err != nil {
		return nil, remoteErr("delete", t.Name, err)
	}
	return removed, nil
}

// nextID returns prefix followed by a zero-padded number one above both the
// live row count and the highest numeric suffix already in use, so ids are
// not reused after rows are deleted.
func nextID(prefix, idField string, rows []row) string {
	n := len(rows)
	for _, r := range rows {
		id := r.record[idField]
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		if v, err := strconv.Atoi(id[len(prefix):]); err == nil && v > n {
			n = v
		}
	}
	return fmt.Sprintf("%s%0*d", prefix, idWidth, n+1)
}

func indexOf(rows []row, field, value string) int {
	for i, r := range rows {
		if r.record[field] == value {
			return i
		}
	}
	return -1
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
