package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/sheetdocs/internal/logging"
	"github.com/JonMunkholm/sheetdocs/internal/remote"
)

// FolderClient is the subset of the remote folder client used for sync.
type FolderClient interface {
	FindByName(ctx context.Context, name, parentID string) (remote.Folder, error)
	Create(ctx context.Context, name, parentID string) (remote.Folder, error)
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, parentID string) ([]remote.Folder, error)
}

// FolderName builds the name of a row's folder: its 1-based ordinal among
// siblings followed by its display value, e.g. "003 - Acme Ltd".
func FolderName(ordinal int, display string) string {
	return fmt.Sprintf("%03d - %s", ordinal, strings.TrimSpace(display))
}

// FolderSync mirrors row creation, renaming and deletion into the folder
// tree. Each synced table has a root folder (found or created under the
// configured root) holding one folder per row.
//
// Folder names embed the row's ordinal, recomputed from the current row
// order on every call. Deleting a middle row does not renumber the folders
// after it, so names drift from ordinals over time. When a durable folder id
// was recorded at creation, rename and delete use it and are immune to the
// drift; otherwise they fall back to looking the folder up by name.
//
// Folder failures never fail the row mutation; callers attach them to the
// result as warnings. Folder and table state may then diverge and are not
// reconciled automatically.
type FolderSync struct {
	client FolderClient
	links  FolderLinks
	rootID string
}

// NewFolderSync creates a FolderSync. links may be nil, in which case every
// folder is addressed by name.
func NewFolderSync(client FolderClient, links FolderLinks, rootID string) *FolderSync {
	return &FolderSync{client: client, links: links, rootID: rootID}
}

// parent finds the table's root folder, creating it when absent.
func (f *FolderSync) parent(ctx context.Context, spec *FolderSpec) (remote.Folder, error) {
	folder, err := f.client.FindByName(ctx, spec.Root, f.rootID)
	if err == nil {
		return folder, nil
	}
	if !errors.Is(err, remote.ErrFolderNotFound) {
		return remote.Folder{}, fmt.Errorf("find root folder %q: %w", spec.Root, err)
	}
	folder, err = f.client.Create(ctx, spec.Root, f.rootID)
	if err != nil {
		return remote.Folder{}, fmt.Errorf("create root folder %q: %w", spec.Root, err)
	}
	return folder, nil
}

// Created creates the folder of a newly added row.
func (f *FolderSync) Created(ctx context.Context, def TableDefinition, ch Change) error {
	if def.Folder == nil {
		return nil
	}
	parent, err := f.parent(ctx, def.Folder)
	if err != nil {
		return err
	}

	name := FolderName(ch.Ordinal, ch.After[def.Folder.DisplayField])
	folder, err := f.client.Create(ctx, name, parent.ID)
	if err != nil {
		return fmt.Errorf("create folder %q: %w", name, err)
	}

	if f.links != nil {
		id := ch.After[def.Table.IDField]
		if err := f.links.Put(ctx, def.Key, id, folder.ID); err != nil {
			return fmt.Errorf("record folder link for %s: %w", id, err)
		}
	}

	logging.FromContext(ctx).Debug("folder created", "table", def.Key, "folder", name, "folder_id", folder.ID)
	return nil
}

// Renamed renames the folder of an updated row when its display value changed.
func (f *FolderSync) Renamed(ctx context.Context, def TableDefinition, ch Change) error {
	if def.Folder == nil {
		return nil
	}
	field := def.Folder.DisplayField
	if ch.Before[field] == ch.After[field] {
		return nil
	}

	oldName := FolderName(ch.Ordinal, ch.Before[field])
	newName := FolderName(ch.Ordinal, ch.After[field])

	folderID, err := f.locate(ctx, def, ch.Before[def.Table.IDField], oldName)
	if err != nil {
		return err
	}
	if err := f.client.Rename(ctx, folderID, newName); err != nil {
		return fmt.Errorf("rename folder %q: %w", oldName, err)
	}

	logging.FromContext(ctx).Debug("folder renamed", "table", def.Key, "from", oldName, "to", newName)
	return nil
}

// Deleted deletes the folder of a removed row.
func (f *FolderSync) Deleted(ctx context.Context, def TableDefinition, ch Change) error {
	if def.Folder == nil {
		return nil
	}
	id := ch.Before[def.Table.IDField]
	name := FolderName(ch.Ordinal, ch.Before[def.Folder.DisplayField])

	folderID, err := f.locate(ctx, def, id, name)
	if err != nil {
		return err
	}
	if err := f.client.Delete(ctx, folderID); err != nil {
		return fmt.Errorf("delete folder %q: %w", name, err)
	}

	if f.links != nil {
		if err := f.links.Remove(ctx, def.Key, id); err != nil {
			return fmt.Errorf("remove folder link for %s: %w", id, err)
		}
	}

	logging.FromContext(ctx).Debug("folder deleted", "table", def.Key, "folder", name)
	return nil
}

// List returns the folders under a table's root folder.
func (f *FolderSync) List(ctx context.Context, def TableDefinition) ([]remote.Folder, error) {
	if def.Folder == nil {
		return nil, nil
	}
	parent, err := f.client.FindByName(ctx, def.Folder.Root, f.rootID)
	if errors.Is(err, remote.ErrFolderNotFound) {
		return []remote.Folder{}, nil
	}
	if err != nil {
		return nil, remoteErr("list folders", def.Key, err)
	}
	folders, err := f.client.List(ctx, parent.ID)
	if err != nil {
		return nil, remoteErr("list folders", def.Key, err)
	}
	return folders, nil
}

// locate resolves a row's folder id, preferring the recorded link and
// falling back to a lookup of the derived name under the table's root.
func (f *FolderSync) locate(ctx context.Context, def TableDefinition, id, name string) (string, error) {
	if f.links != nil {
		folderID, ok, err := f.links.Get(ctx, def.Key, id)
		if err != nil {
			logging.FromContext(ctx).Warn("folder link lookup failed, falling back to name",
				"table", def.Key, "id", id, "error", err)
		} else if ok {
			return folderID, nil
		}
	}

	parent, err := f.parent(ctx, def.Folder)
	if err != nil {
		return "", err
	}
	folder, err := f.client.FindByName(ctx, name, parent.ID)
	if err != nil {
		return "", fmt.Errorf("find folder %q: %w", name, err)
	}
	return folder.ID, nil
}
