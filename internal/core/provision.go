package core

import (
	"context"
	"fmt"
)

// Provisioner is the part of the remote spreadsheet client that can add tabs.
type Provisioner interface {
	SheetNames(ctx context.Context) ([]string, error)
	CreateSheet(ctx context.Context, name string) error
	AppendRow(ctx context.Context, sheet string, row []string) error
}

// Provision creates the tab of every definition that has none yet and
// writes its header row. Existing tabs are left untouched. It returns the
// names of the tabs it created.
func Provision(ctx context.Context, p Provisioner, defs []TableDefinition) ([]string, error) {
	existing, err := p.SheetNames(ctx)
	if err != nil {
		return nil, remoteErr("list sheets", "", err)
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	var created []string
	for _, def := range defs {
		name := def.Table.Name
		if have[name] {
			continue
		}
		if len(def.Table.Headers) == 0 {
			return created, &SchemaError{Table: name, Reason: "no headers defined"}
		}
		if err := p.CreateSheet(ctx, name); err != nil {
			return created, remoteErr("create sheet", name, err)
		}
		if err := p.AppendRow(ctx, name, def.Table.Headers); err != nil {
			return created, remoteErr("write header", name, fmt.Errorf("header row: %w", err))
		}
		have[name] = true
		created = append(created, name)
	}
	return created, nil
}
