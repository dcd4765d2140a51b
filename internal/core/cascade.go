package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/sheetdocs/internal/logging"
)

// DefaultMaxCascadeDepth bounds how many levels of dependents a cascade
// follows below the parent.
const DefaultMaxCascadeDepth = 3

// CascadeReport summarizes a cascading delete.
type CascadeReport struct {
	Parent   Change           `json:"-"`
	Deleted  map[string]int   `json:"deleted"`
	Failures []CascadeFailure `json:"failures,omitempty"`

	// Removed holds the dependent rows deleted per table key, in deletion
	// order, so their folders can follow.
	Removed map[string][]Change `json:"-"`
}

// Total returns the number of rows deleted across every table.
func (r *CascadeReport) Total() int {
	n := 0
	for _, c := range r.Deleted {
		n += c
	}
	return n
}

// Err returns a *PartialCascadeError when any dependent delete failed.
func (r *CascadeReport) Err(table, id string) error {
	if len(r.Failures) == 0 {
		return nil
	}
	return &PartialCascadeError{Table: table, ID: id, Failures: r.Failures}
}

// Cascader approximates referential integrity over tabs that have none.
// Deleting a parent first deletes its dependents, table by table, following
// a fixed rule map, and only then deletes the parent row.
//
// Dependent deletes are best effort: a failure is logged and recorded but
// the cascade carries on. Nothing is rolled back.
type Cascader struct {
	store    *Store
	rules    CascadeRules
	maxDepth int
}

// NewCascader creates a Cascader applying rules over store.
func NewCascader(store *Store, rules CascadeRules, maxDepth int) *Cascader {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxCascadeDepth
	}
	return &Cascader{store: store, rules: rules, maxDepth: maxDepth}
}

// Rules returns the dependents configured for a parent table key.
func (c *Cascader) Rules(key string) []Dependent {
	return c.rules[key]
}

// Delete removes the row of table key with the given id together with its
// dependents. It fails only when the parent is missing or the final parent
// delete fails; dependent failures are returned in the report.
func (c *Cascader) Delete(ctx context.Context, key, id string) (*CascadeReport, error) {
	def, err := lookup(key)
	if err != nil {
		return nil, err
	}

	// A missing parent must leave every table untouched.
	if _, err := c.store.GetByID(ctx, def.Table, id); err != nil {
		return nil, err
	}

	report := &CascadeReport{
		Deleted: make(map[string]int),
		Removed: make(map[string][]Change),
	}
	c.deleteDependents(ctx, key, id, 1, report)

	parent, err := c.store.Delete(ctx, def.Table, id)
	if err != nil {
		logging.FromContext(ctx).Error("cascade: parent delete failed",
			"table", key,
			"id", id,
			"dependents_deleted", report.Deleted,
			"error", err,
		)
		return report, err
	}
	report.Parent = parent
	report.Deleted[key]++

	logger := logging.FromContext(ctx)
	if len(report.Failures) > 0 {
		logger.Warn("cascade: completed with failures",
			"table", key, "id", id, "deleted", report.Deleted, "failures", len(report.Failures))
	} else {
		logger.Info("cascade: completed", "table", key, "id", id, "deleted", report.Deleted)
	}
	return report, nil
}

// deleteDependents removes every row referencing parentID from the
// dependent tables of parentKey. Dependents that are parents themselves
// have their own dependents removed first.
func (c *Cascader) deleteDependents(ctx context.Context, parentKey, parentID string, depth int, report *CascadeReport) {
	for _, dep := range c.rules[parentKey] {
		depDef, err := lookup(dep.Table)
		if err != nil {
			c.fail(ctx, report, dep, err)
			continue
		}

		if len(c.rules[dep.Table]) > 0 {
			c.descend(ctx, dep, depDef, parentID, depth, report)
		}

		removed, err := c.store.deleteWhere(ctx, depDef.Table, func(r Record) bool {
			return r[dep.Field] == parentID
		})
		if err != nil {
			c.fail(ctx, report, dep, err)
			continue
		}
		if len(removed) > 0 {
			report.Deleted[dep.Table] += len(removed)
			report.Removed[dep.Table] = append(report.Removed[dep.Table], removed...)
		}
	}
}

// descend cascades into the rows of dep that reference parentID. When they
// cannot be read, or the depth limit stops the walk, every dependent rule of
// dep is recorded as failed; the rows of dep itself are still deleted by
// the caller.
func (c *Cascader) descend(ctx context.Context, dep Dependent, depDef TableDefinition, parentID string, depth int, report *CascadeReport) {
	children, err := c.store.Find(ctx, depDef.Table, dep.Field, parentID)
	if err != nil {
		c.failRules(ctx, report, dep.Table, fmt.Errorf("read %s: %w", dep.Table, err))
		return
	}
	if len(children) == 0 {
		return
	}
	if depth >= c.maxDepth {
		logging.FromContext(ctx).Warn("cascade: depth limit reached, grandchildren left in place",
			"table", dep.Table, "depth", depth, "rows", len(children))
		c.failRules(ctx, report, dep.Table, ErrCascadeDepth)
		return
	}
	for _, child := range children {
		c.deleteDependents(ctx, dep.Table, child[depDef.Table.IDField], depth+1, report)
	}
}

func (c *Cascader) failRules(ctx context.Context, report *CascadeReport, key string, err error) {
	for _, dep := range c.rules[key] {
		c.fail(ctx, report, dep, err)
	}
}

func (c *Cascader) fail(ctx context.Context, report *CascadeReport, dep Dependent, err error) {
	var rio *RemoteIOError
	logging.FromContext(ctx).Warn("cascade: dependent delete failed, continuing",
		"table", dep.Table,
		"field", dep.Field,
		"remote", errors.As(err, &rio),
		"error", err,
	)
	report.Failures = append(report.Failures, CascadeFailure{Table: dep.Table, Field: dep.Field, Err: err})
}
