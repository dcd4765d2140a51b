package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/oauth2"

	"github.com/JonMunkholm/sheetdocs/internal/logging"
	"github.com/JonMunkholm/sheetdocs/internal/remote"
)

// Authenticator is the external collaborator holding the capability token.
type Authenticator interface {
	IsAuthenticated() bool
	AuthorizedClient() (oauth2.TokenSource, error)
}

// rebinder is implemented by remote clients that can swap credentials.
type rebinder interface {
	Rebind(ctx context.Context, ts oauth2.TokenSource) error
}

// tokenRebinder is implemented by authenticators that accept a new token.
type tokenRebinder interface {
	Rebind(accessToken string)
}

// Options configures a Service.
type Options struct {
	Auth            Authenticator
	Links           FolderLinks
	Audit           AuditSink
	RootFolderID    string
	Cascades        CascadeRules
	MaxCascadeDepth int
}

// Service is the entry point for every table operation. It resolves table
// keys through the registry and composes the store, cascade and folder sync
// into the results reported to callers.
type Service struct {
	store   *Store
	cascade *Cascader
	folders *FolderSync
	auth    Authenticator
	audit   AuditSink

	tableClient  TableClient
	folderClient FolderClient
}

// NewService wires a Service over the given remote clients.
func NewService(tables TableClient, folders FolderClient, opts Options) *Service {
	store := NewStore(tables)
	return &Service{
		store:        store,
		cascade:      NewCascader(store, opts.Cascades, opts.MaxCascadeDepth),
		folders:      NewFolderSync(folders, opts.Links, opts.RootFolderID),
		auth:         opts.Auth,
		audit:        opts.Audit,
		tableClient:  tables,
		folderClient: folders,
	}
}

// Store exposes the underlying table store.
func (s *Service) Store() *Store { return s.store }

// Tables returns all registered table definitions.
func (s *Service) Tables() []TableDefinition { return All() }

// List returns every live record of a table.
func (s *Service) List(ctx context.Context, key string) ([]Record, error) {
	def, err := lookup(key)
	if err != nil {
		return nil, err
	}
	return s.store.ReadAll(ctx, def.Table)
}

// Get returns the record of a table with the given id.
func (s *Service) Get(ctx context.Context, key, id string) (Record, error) {
	def, err := lookup(key)
	if err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, def.Table, id)
}

// Create validates and adds a record, then creates its folder.
func (s *Service) Create(ctx context.Context, key string, rec Record) (*Result, error) {
	def, err := lookup(key)
	if err != nil {
		return nil, err
	}
	if missing := missingRequired(def, rec, false); len(missing) > 0 {
		return nil, &ValidationError{Table: def.Table.Name, Fields: missing}
	}

	ch, err := s.store.Add(ctx, def.Table, rec)
	if err != nil {
		return nil, err
	}

	id := ch.After[def.Table.IDField]
	logMutation(ctx, "created", def, id)
	s.recordAudit(ctx, AuditLogParams{
		Action:       ActionRowCreate,
		TableKey:     def.Key,
		RowKey:       id,
		NewValues:    ch.After,
		RowsAffected: 1,
	})

	result := &Result{Success: true, Message: fmt.Sprintf("%s %s created", def.Label, id), Data: ch.After}
	if err := s.folders.Created(ctx, def, ch); err != nil {
		s.folderWarning(ctx, result, def, id, err)
	}
	return result, nil
}

// Update merges patch onto a record, then renames its folder if the
// display value changed.
func (s *Service) Update(ctx context.Context, key, id string, patch Record) (*Result, error) {
	def, err := lookup(key)
	if err != nil {
		return nil, err
	}
	if missing := missingRequired(def, patch, true); len(missing) > 0 {
		return nil, &ValidationError{Table: def.Table.Name, Fields: missing}
	}

	ch, err := s.store.Update(ctx, def.Table, id, patch)
	if err != nil {
		return nil, err
	}
	logMutation(ctx, "updated", def, id)
	s.recordAudit(ctx, AuditLogParams{
		Action:       ActionRowUpdate,
		TableKey:     def.Key,
		RowKey:       id,
		OldValues:    ch.Before,
		NewValues:    ch.After,
		RowsAffected: 1,
	})

	result := &Result{Success: true, Message: fmt.Sprintf("%s %s updated", def.Label, id), Data: ch.After}
	if err := s.folders.Renamed(ctx, def, ch); err != nil {
		s.folderWarning(ctx, result, def, id, err)
	}
	return result, nil
}

// Delete removes a record together with its cascade dependents, then
// deletes its folder and the folders of every cascaded row. Dependent
// failures and folder failures are reported as warnings on a successful
// result.
func (s *Service) Delete(ctx context.Context, key, id string) (*Result, error) {
	def, err := lookup(key)
	if err != nil {
		return nil, err
	}

	report, err := s.cascade.Delete(ctx, key, id)
	if err != nil {
		return nil, err
	}
	logMutation(ctx, "deleted", def, id)

	result := &Result{
		Success: true,
		Message: fmt.Sprintf("%s %s deleted", def.Label, id),
		Data:    report,
	}
	audit := AuditLogParams{
		Action:       ActionRowDelete,
		TableKey:     def.Key,
		RowKey:       id,
		OldValues:    report.Parent.Before,
		RowsAffected: report.Total(),
	}
	if perr := report.Err(def.Table.Name, id); perr != nil {
		result.addWarning(perr.Error())
		audit.Reason = perr.Error()
	}
	s.recordAudit(ctx, audit)
	if err := s.folders.Deleted(ctx, def, report.Parent); err != nil {
		s.folderWarning(ctx, result, def, id, err)
	}
	s.deleteCascadedFolders(ctx, result, report)
	return result, nil
}

// deleteCascadedFolders removes the folders of rows deleted as dependents.
func (s *Service) deleteCascadedFolders(ctx context.Context, result *Result, report *CascadeReport) {
	keys := make([]string, 0, len(report.Removed))
	for key := range report.Removed {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		def, err := lookup(key)
		if err != nil || def.Folder == nil {
			continue
		}
		for _, ch := range report.Removed[key] {
			if err := s.folders.Deleted(ctx, def, ch); err != nil {
				s.folderWarning(ctx, result, def, ch.Before[def.Table.IDField], err)
			}
		}
	}
}

// DeleteMany removes every row of a table whose field equals value. It
// does not cascade and does not touch folders.
func (s *Service) DeleteMany(ctx context.Context, key, field, value string) (*Result, error) {
	def, err := lookup(key)
	if err != nil {
		return nil, err
	}
	if field == "" {
		return nil, &ValidationError{Table: def.Table.Name, Fields: []string{"field"}}
	}

	removed, err := s.store.DeleteMany(ctx, def.Table, field, value)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("rows deleted",
		append(actorAttrs(ctx), "table", key, "field", field, "count", len(removed))...)
	if len(removed) > 0 {
		s.recordAudit(ctx, AuditLogParams{
			Action:       ActionBulkDelete,
			TableKey:     def.Key,
			RowsAffected: len(removed),
			Reason:       fmt.Sprintf("%s = %q", field, value),
		})
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("%d %s row(s) deleted", len(removed), def.Label),
		Data:    map[string]int{"deleted": len(removed)},
	}, nil
}

// Folders lists the folders mirrored for a table's rows.
func (s *Service) Folders(ctx context.Context, key string) ([]remote.Folder, error) {
	def, err := lookup(key)
	if err != nil {
		return nil, err
	}
	return s.folders.List(ctx, def)
}

// Authenticated reports whether the remote clients hold usable credentials.
// Without an authenticator the service is considered authenticated.
func (s *Service) Authenticated() bool {
	if s.auth == nil {
		return true
	}
	return s.auth.IsAuthenticated()
}

// Rebind installs a new access token and rebuilds the remote clients with it.
func (s *Service) Rebind(ctx context.Context, accessToken string) error {
	tr, ok := s.auth.(tokenRebinder)
	if !ok {
		return errors.New("authenticator does not support rebinding")
	}
	tr.Rebind(accessToken)

	ts, err := s.auth.AuthorizedClient()
	if err != nil {
		return err
	}
	for _, c := range []any{s.tableClient, s.folderClient} {
		if rb, ok := c.(rebinder); ok {
			if err := rb.Rebind(ctx, ts); err != nil {
				return remoteErr("rebind", "", err)
			}
		}
	}
	logging.FromContext(ctx).Info("remote clients rebound", actorAttrs(ctx)...)
	s.recordAudit(ctx, AuditLogParams{Action: ActionAuthRebind})
	return nil
}

func (s *Service) folderWarning(ctx context.Context, result *Result, def TableDefinition, id string, err error) {
	logging.FromContext(ctx).Warn("folder sync failed, table and folders may diverge",
		"table", def.Key, "id", id, "error", err)
	result.addWarning("folder sync failed: " + err.Error())
	s.recordAudit(ctx, AuditLogParams{
		Action:   ActionFolderDrift,
		TableKey: def.Key,
		RowKey:   id,
		Reason:   err.Error(),
	})
}

// missingRequired lists required fields that are empty. For patches only
// fields present in the patch are checked.
func missingRequired(def TableDefinition, rec Record, patch bool) []string {
	var missing []string
	for _, f := range def.Required {
		v, present := rec[f]
		if patch && !present {
			continue
		}
		if v == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

func logMutation(ctx context.Context, verb string, def TableDefinition, id string) {
	logging.FromContext(ctx).Info("row "+verb, append(actorAttrs(ctx), "table", def.Key, "id", id)...)
}
