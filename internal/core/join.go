package core

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Joined is a primary record decorated with related records from other
// tables, keyed by the name each join attaches under.
type Joined struct {
	Record  Record
	Related map[string]Record
}

// MarshalJSON flattens the primary fields and nests each related record
// under its join name.
func (j Joined) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(j.Record)+len(j.Related))
	for k, v := range j.Record {
		out[k] = v
	}
	for k, v := range j.Related {
		out[k] = v
	}
	return json.Marshal(out)
}

// LeftJoin decorates every primary record with the first secondary record
// whose foreignKey equals the primary's localKey, attached under as. A
// primary without a match gets an empty record. Matching is a linear scan
// per primary row, adequate for tabs of a few hundred rows.
func LeftJoin(primary, secondary []Record, localKey, foreignKey, as string) []Joined {
	rows := make([]Joined, len(primary))
	for i, rec := range primary {
		rows[i] = Joined{Record: rec, Related: make(map[string]Record)}
	}
	return JoinMore(rows, secondary, JoinSpec{LocalKey: localKey, ForeignKey: foreignKey, As: as})
}

// JoinMore applies one more left join to already joined rows. The local key
// is read from the primary record.
func JoinMore(rows []Joined, secondary []Record, spec JoinSpec) []Joined {
	for i := range rows {
		match := Record{}
		key := rows[i].Record[spec.LocalKey]
		for _, sec := range secondary {
			if key != "" && sec[spec.ForeignKey] == key {
				match = sec
				break
			}
		}
		if rows[i].Related == nil {
			rows[i].Related = make(map[string]Record)
		}
		rows[i].Related[spec.As] = match
	}
	return rows
}

// View materializes a registered view. The primary and every joined table
// are fetched concurrently; the joins are applied in definition order.
func (s *Service) View(ctx context.Context, name string) ([]Joined, error) {
	view, ok := GetView(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownView, name)
	}

	keys := make([]string, 0, len(view.Joins)+1)
	keys = append(keys, view.Primary)
	for _, j := range view.Joins {
		keys = append(keys, j.Table)
	}

	defs := make([]TableDefinition, len(keys))
	for i, key := range keys {
		def, err := lookup(key)
		if err != nil {
			return nil, err
		}
		defs[i] = def
	}

	results := make([][]Record, len(defs))
	g, gctx := errgroup.WithContext(ctx)
	for i, def := range defs {
		g.Go(func() error {
			records, err := s.store.ReadAll(gctx, def.Table)
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := make([]Joined, len(results[0]))
	for i, rec := range results[0] {
		rows[i] = Joined{Record: rec, Related: make(map[string]Record, len(view.Joins))}
	}
	for i, spec := range view.Joins {
		rows = JoinMore(rows, results[i+1], spec)
	}
	return rows, nil
}
