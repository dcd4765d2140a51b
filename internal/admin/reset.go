// Package admin provides destructive maintenance operations on the
// spreadsheet tabs backing the tables.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/sheetdocs/internal/core"
)

// ResetTimeout is the maximum duration for reset operations.
const ResetTimeout = 30 * time.Second

// Clearer blanks the data rows of a tab, keeping its header.
type Clearer interface {
	ClearData(ctx context.Context, sheet string) error
}

// Resetter handles table reset operations.
type Resetter struct {
	Grid Clearer
}

type resetFn func(ctx context.Context) error

// ResetAll blanks every registered table.
// This is a destructive operation - use with caution.
func (r *Resetter) ResetAll(ctx context.Context) ([]string, error) {
	return r.Reset(ctx, core.All())
}

// Reset blanks the given tables in order and returns the tabs cleared. It
// stops at the first failure. Folders and folder links are left as they are.
func (r *Resetter) Reset(ctx context.Context, defs []core.TableDefinition) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	var cleared []string
	resets := make([]resetFn, len(defs))
	for i, def := range defs {
		sheet := def.Table.Name
		resets[i] = func(ctx context.Context) error {
			if err := r.Grid.ClearData(ctx, sheet); err != nil {
				return fmt.Errorf("reset %s: %w", sheet, err)
			}
			cleared = append(cleared, sheet)
			return nil
		}
	}

	err := r.runResets(ctx, resets)
	return cleared, err
}

func (r *Resetter) runResets(ctx context.Context, resets []resetFn) error {
	for _, reset := range resets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := reset(ctx); err != nil {
			return err
		}
	}
	return nil
}
