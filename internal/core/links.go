package core

import (
	"context"
	"sync"
)

// FolderLinks persists the durable folder id created for each row, so a
// row's folder can be renamed or deleted by id instead of by a name derived
// from its current position.
type FolderLinks interface {
	Get(ctx context.Context, table, id string) (folderID string, ok bool, err error)
	Put(ctx context.Context, table, id, folderID string) error
	Remove(ctx context.Context, table, id string) error
}

// MemoryLinks keeps folder links in process memory. Links are lost on
// restart, after which folders are addressed by name again.
type MemoryLinks struct {
	mu    sync.RWMutex
	links map[string]string
}

// NewMemoryLinks creates an empty in-memory link store.
func NewMemoryLinks() *MemoryLinks {
	return &MemoryLinks{links: make(map[string]string)}
}

func linkKey(table, id string) string { return table + "\x00" + id }

// Get returns the folder id linked to a row.
func (m *MemoryLinks) Get(_ context.Context, table, id string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	folderID, ok := m.links[linkKey(table, id)]
	return folderID, ok, nil
}

// Put links a row to a folder id, replacing any previous link.
func (m *MemoryLinks) Put(_ context.Context, table, id, folderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[linkKey(table, id)] = folderID
	return nil
}

// Remove drops the link of a row. Removing a missing link is not an error.
func (m *MemoryLinks) Remove(_ context.Context, table, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.links, linkKey(table, id))
	return nil
}
