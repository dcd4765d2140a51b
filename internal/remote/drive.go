package remote

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const folderFields = "files(id, name, parents), nextPageToken"

// Drive is the folder capability client backed by the Google Drive API.
// Only folders are visible to it; files inside folders are managed elsewhere.
type Drive struct {
	mu  sync.RWMutex
	svc *drive.Service
}

// NewDrive creates a Drive client using the given token source.
func NewDrive(ctx context.Context, ts oauth2.TokenSource) (*Drive, error) {
	d := &Drive{}
	if err := d.Rebind(ctx, ts); err != nil {
		return nil, err
	}
	return d, nil
}

// Rebind swaps the authorized service for one built from ts.
func (d *Drive) Rebind(ctx context.Context, ts oauth2.TokenSource) error {
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return fmt.Errorf("drive service: %w", err)
	}
	d.mu.Lock()
	d.svc = svc
	d.mu.Unlock()
	return nil
}

func (d *Drive) service() *drive.Service {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.svc
}

// FindByName returns the first folder named name directly under parentID.
// Names are not unique within a parent; the first match wins.
func (d *Drive) FindByName(ctx context.Context, name, parentID string) (Folder, error) {
	q := folderQuery(parentID) + " and name = '" + escapeQuery(name) + "'"
	resp, err := d.service().Files.List().
		Q(q).
		Fields(folderFields).
		PageSize(10).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return Folder{}, fmt.Errorf("find folder %q: %w", name, err)
	}
	if len(resp.Files) == 0 {
		return Folder{}, fmt.Errorf("%q: %w", name, ErrFolderNotFound)
	}
	return toFolder(resp.Files[0], parentID), nil
}

// Create makes a new folder under parentID and returns it with its durable id.
func (d *Drive) Create(ctx context.Context, name, parentID string) (Folder, error) {
	f := &drive.File{
		Name:     name,
		MimeType: FolderMimeType,
	}
	if parentID != "" {
		f.Parents = []string{parentID}
	}

	created, err := d.service().Files.Create(f).
		Fields("id, name, parents").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return Folder{}, fmt.Errorf("create folder %q: %w", name, err)
	}
	return toFolder(created, parentID), nil
}

// Rename changes the name of the folder with the given id.
func (d *Drive) Rename(ctx context.Context, id, name string) error {
	_, err := d.service().Files.Update(id, &drive.File{Name: name}).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("rename folder %s: %w", id, err)
	}
	return nil
}

// Delete permanently removes the folder with the given id.
func (d *Drive) Delete(ctx context.Context, id string) error {
	if err := d.service().Files.Delete(id).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete folder %s: %w", id, err)
	}
	return nil
}

// List returns every folder directly under parentID in name order.
func (d *Drive) List(ctx context.Context, parentID string) ([]Folder, error) {
	var folders []Folder
	err := d.service().Files.List().
		Q(folderQuery(parentID)).
		Fields(folderFields).
		OrderBy("name").
		PageSize(200).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				folders = append(folders, toFolder(f, parentID))
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return folders, nil
}

// folderQuery builds the Drive search clause for live folders under parentID.
func folderQuery(parentID string) string {
	if parentID == "" {
		parentID = "root"
	}
	return fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false",
		escapeQuery(parentID), FolderMimeType)
}

// escapeQuery escapes a literal for a Drive query string.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}

func toFolder(f *drive.File, parentID string) Folder {
	folder := Folder{ID: f.Id, Name: f.Name, ParentID: parentID}
	if len(f.Parents) > 0 {
		folder.ParentID = f.Parents[0]
	}
	return folder
}
