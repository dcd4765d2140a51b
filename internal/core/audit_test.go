package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudit_Mutations(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := ContextWithIPAddress(t.Context(), "10.0.0.7")

	_, err := env.svc.Create(ctx, "companies", Record{"name": "Acme"})
	require.NoError(t, err)
	_, err = env.svc.Create(ctx, "personnel", Record{"company_id": "CMP001", "full_name": "Ann"})
	require.NoError(t, err)
	_, err = env.svc.Update(ctx, "companies", "CMP001", Record{"name": "Acme Ltd"})
	require.NoError(t, err)
	_, err = env.svc.Delete(ctx, "companies", "CMP001")
	require.NoError(t, err)

	entries, err := env.svc.GetAuditLog(ctx, AuditLogFilter{TableKey: "companies"})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	del, upd, create := entries[0], entries[1], entries[2]

	assert.Equal(t, ActionRowCreate, create.Action)
	assert.Equal(t, "CMP001", create.RowKey)
	assert.Equal(t, "Acme", create.NewValues["name"])
	assert.Equal(t, "10.0.0.7", create.IPAddress)
	assert.Equal(t, SeverityMedium, create.Severity)
	assert.NotEmpty(t, create.ID)

	assert.Equal(t, ActionRowUpdate, upd.Action)
	assert.Equal(t, "Acme", upd.OldValues["name"])
	assert.Equal(t, "Acme Ltd", upd.NewValues["name"])

	assert.Equal(t, ActionRowDelete, del.Action)
	assert.Equal(t, SeverityHigh, del.Severity)
	assert.Equal(t, "Acme Ltd", del.OldValues["name"])
	assert.Equal(t, 2, del.RowsAffected, "parent plus one personnel row")
	assert.Empty(t, del.Reason)
}

func TestAudit_PartialCascadeReason(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := t.Context()

	_, err := env.svc.Create(ctx, "companies", Record{"name": "Acme"})
	require.NoError(t, err)
	_, err = env.svc.Create(ctx, "personnel", Record{"company_id": "CMP001", "full_name": "Ann"})
	require.NoError(t, err)

	env.grid.SetFault(func(op, target string) error {
		if op == "delete" && target == "Personnel" {
			return errors.New("quota exceeded")
		}
		return nil
	})
	_, err = env.svc.Delete(ctx, "companies", "CMP001")
	require.NoError(t, err)

	entries, err := env.svc.GetAuditLog(ctx, AuditLogFilter{Action: ActionRowDelete})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Reason, "quota exceeded")
	assert.Equal(t, 1, entries[0].RowsAffected)
}

func TestAudit_BulkDelete(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := t.Context()
	env.grid.Seed("Documents", [][]string{
		{"document_id", "personnel_id", "kind"},
		{"DOC001", "PER001", "a"},
		{"DOC002", "PER001", "b"},
	})

	_, err := env.svc.DeleteMany(ctx, "documents", "personnel_id", "PER001")
	require.NoError(t, err)
	_, err = env.svc.DeleteMany(ctx, "documents", "personnel_id", "PER404")
	require.NoError(t, err)

	entries, err := env.svc.GetAuditLog(ctx, AuditLogFilter{Action: ActionBulkDelete})
	require.NoError(t, err)
	require.Len(t, entries, 1, "empty deletes are not audited")
	assert.Equal(t, 2, entries[0].RowsAffected)
	assert.Equal(t, `personnel_id = "PER001"`, entries[0].Reason)
}

func TestAudit_FolderDrift(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := t.Context()
	env.folders.SetFault(func(op, _ string) error {
		if op == "create" {
			return errors.New("drive unavailable")
		}
		return nil
	})

	result, err := env.svc.Create(ctx, "companies", Record{"name": "Acme"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Warning)

	entries, err := env.svc.GetAuditLog(ctx, AuditLogFilter{Action: ActionFolderDrift})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, SeverityLow, entries[0].Severity)
	assert.Equal(t, "CMP001", entries[0].RowKey)
}

func TestAudit_Unavailable(t *testing.T) {
	setupRegistry(t)
	svc := NewService(newTestGrid(), nil, Options{})

	entry, err := svc.LogAudit(t.Context(), AuditLogParams{Action: ActionTableReset, TableKey: "companies"})
	require.NoError(t, err)
	assert.Equal(t, SeverityCritical, entry.Severity)

	_, err = svc.GetAuditLog(t.Context(), AuditLogFilter{})
	assert.ErrorIs(t, err, ErrAuditUnavailable)
}

type failingSink struct{}

func (failingSink) Append(context.Context, AuditEntry) error { return errors.New("disk full") }

func TestAudit_SinkFailureDoesNotFailMutation(t *testing.T) {
	setupRegistry(t)
	grid := newTestGrid()
	svc := NewService(grid, nil, Options{Audit: failingSink{}})

	_, err := svc.LogAudit(t.Context(), AuditLogParams{Action: ActionRowCreate})
	assert.Error(t, err)

	result, err := svc.Create(t.Context(), "documents", Record{"kind": "x"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, grid.Rows("Documents"), 2)
}

func TestMemoryAudit_List(t *testing.T) {
	m := NewMemoryAudit(3)
	ctx := context.Background()
	for _, id := range []string{"1", "2", "3", "4"} {
		require.NoError(t, m.Append(ctx, AuditEntry{ID: id, TableKey: "t", Action: ActionRowCreate}))
	}

	tests := []struct {
		name   string
		filter AuditLogFilter
		want   []string
	}{
		{"newest first, oldest dropped", AuditLogFilter{}, []string{"4", "3", "2"}},
		{"limit", AuditLogFilter{Limit: 2}, []string{"4", "3"}},
		{"offset", AuditLogFilter{Offset: 1}, []string{"3", "2"}},
		{"offset past end", AuditLogFilter{Offset: 5}, nil},
		{"other table", AuditLogFilter{TableKey: "x"}, nil},
		{"other action", AuditLogFilter{Action: ActionRowDelete}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := m.List(ctx, tt.filter)
			require.NoError(t, err)
			var got []string
			for _, e := range entries {
				got = append(got, e.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
