package remote

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// FaultFunc lets tests inject remote failures. It is called with the
// operation name ("values", "write", "append", "clear", "delete", "create",
// "rename", "find", "list") and the sheet or folder name involved. A non-nil
// return aborts the operation with that error.
type FaultFunc func(op, target string) error

// MemoryGrid is an in-memory spreadsheet with the same addressing rules as
// [Sheets]: 1-based row positions with the header at position 1, structural
// row deletes that shift later rows up.
type MemoryGrid struct {
	mu      sync.Mutex
	sheets  map[string][][]string
	deletes map[string][][]int
	fault   FaultFunc
}

// NewMemoryGrid creates an empty in-memory spreadsheet.
func NewMemoryGrid() *MemoryGrid {
	return &MemoryGrid{
		sheets:  make(map[string][][]string),
		deletes: make(map[string][][]int),
	}
}

// SetFault installs a fault injector. Pass nil to clear it.
func (g *MemoryGrid) SetFault(f FaultFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fault = f
}

// Seed replaces the contents of a tab, creating it if needed.
func (g *MemoryGrid) Seed(sheet string, rows [][]string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sheets[sheet] = copyGrid(rows)
}

// Rows returns a copy of every row of a tab, header included.
func (g *MemoryGrid) Rows(sheet string) [][]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return copyGrid(g.sheets[sheet])
}

// DeleteBatches returns the position lists passed to DeleteRows for a tab,
// in call order.
func (g *MemoryGrid) DeleteBatches(sheet string) [][]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([][]int, len(g.deletes[sheet]))
	for i, b := range g.deletes[sheet] {
		out[i] = append([]int(nil), b...)
	}
	return out
}

// Rebind is a no-op; the in-memory grid needs no credentials.
func (g *MemoryGrid) Rebind(context.Context, oauth2.TokenSource) error { return nil }

func (g *MemoryGrid) check(op, target string) error {
	if g.fault == nil {
		return nil
	}
	return g.fault(op, target)
}

// Values returns every row of a tab, header first.
func (g *MemoryGrid) Values(_ context.Context, sheet string) ([][]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("values", sheet); err != nil {
		return nil, err
	}
	rows, ok := g.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("%s: %w", sheet, ErrSheetNotFound)
	}
	return copyGrid(rows), nil
}

// WriteRow overwrites the row at the given 1-based position, growing the
// tab with empty rows when the position is past the end.
func (g *MemoryGrid) WriteRow(_ context.Context, sheet string, position int, row []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("write", sheet); err != nil {
		return err
	}
	rows, ok := g.sheets[sheet]
	if !ok {
		return fmt.Errorf("%s: %w", sheet, ErrSheetNotFound)
	}
	if position < 1 {
		return fmt.Errorf("write %s row %d: %w", sheet, position, ErrRowOutOfRange)
	}
	for len(rows) < position {
		rows = append(rows, []string{})
	}
	rows[position-1] = append([]string(nil), row...)
	g.sheets[sheet] = rows
	return nil
}

// AppendRow appends a row after the last row of the tab.
func (g *MemoryGrid) AppendRow(_ context.Context, sheet string, row []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("append", sheet); err != nil {
		return err
	}
	rows, ok := g.sheets[sheet]
	if !ok {
		return fmt.Errorf("%s: %w", sheet, ErrSheetNotFound)
	}
	g.sheets[sheet] = append(rows, append([]string(nil), row...))
	return nil
}

// ClearData blanks every row below the header.
func (g *MemoryGrid) ClearData(_ context.Context, sheet string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("clear", sheet); err != nil {
		return err
	}
	rows, ok := g.sheets[sheet]
	if !ok {
		return fmt.Errorf("%s: %w", sheet, ErrSheetNotFound)
	}
	for i := 1; i < len(rows); i++ {
		rows[i] = []string{}
	}
	return nil
}

// DeleteRows removes rows at the given 1-based positions, one after the
// other in the order given. Each removal shifts later rows up before the
// next position is applied.
func (g *MemoryGrid) DeleteRows(_ context.Context, sheet string, positions []int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(positions) == 0 {
		return nil
	}
	if err := g.check("delete", sheet); err != nil {
		return err
	}
	rows, ok := g.sheets[sheet]
	if !ok {
		return fmt.Errorf("%s: %w", sheet, ErrSheetNotFound)
	}

	g.deletes[sheet] = append(g.deletes[sheet], append([]int(nil), positions...))

	// The batch is atomic remotely: validate against a scratch copy first.
	work := copyGrid(rows)
	for _, pos := range positions {
		if pos < 1 || pos > len(work) {
			return fmt.Errorf("delete %s row %d: %w", sheet, pos, ErrRowOutOfRange)
		}
		work = append(work[:pos-1], work[pos:]...)
	}
	g.sheets[sheet] = work
	return nil
}

// CreateSheet adds an empty tab.
func (g *MemoryGrid) CreateSheet(_ context.Context, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("create", name); err != nil {
		return err
	}
	if _, ok := g.sheets[name]; ok {
		return fmt.Errorf("create sheet %s: already exists", name)
	}
	g.sheets[name] = [][]string{}
	return nil
}

// RenameSheet changes the title of an existing tab.
func (g *MemoryGrid) RenameSheet(_ context.Context, oldName, newName string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("rename", oldName); err != nil {
		return err
	}
	rows, ok := g.sheets[oldName]
	if !ok {
		return fmt.Errorf("%s: %w", oldName, ErrSheetNotFound)
	}
	if _, taken := g.sheets[newName]; taken {
		return fmt.Errorf("rename sheet %s: %s already exists", oldName, newName)
	}
	delete(g.sheets, oldName)
	g.sheets[newName] = rows
	return nil
}

// SheetNames lists tab titles in sorted order.
func (g *MemoryGrid) SheetNames(context.Context) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	names := make([]string, 0, len(g.sheets))
	for name := range g.sheets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func copyGrid(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string{}, r...)
	}
	return out
}

// MemoryFolders is an in-memory folder tree. Folders keep creation order so
// that name lookups resolve collisions by first match, like [Drive].
type MemoryFolders struct {
	mu      sync.Mutex
	folders []Folder
	fault   FaultFunc
}

// NewMemoryFolders creates an empty folder tree.
func NewMemoryFolders() *MemoryFolders {
	return &MemoryFolders{}
}

// SetFault installs a fault injector. Pass nil to clear it.
func (m *MemoryFolders) SetFault(f FaultFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fault = f
}

// Rebind is a no-op; the in-memory tree needs no credentials.
func (m *MemoryFolders) Rebind(context.Context, oauth2.TokenSource) error { return nil }

func (m *MemoryFolders) check(op, target string) error {
	if m.fault == nil {
		return nil
	}
	return m.fault(op, target)
}

// FindByName returns the first folder named name under parentID.
func (m *MemoryFolders) FindByName(_ context.Context, name, parentID string) (Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("find", name); err != nil {
		return Folder{}, err
	}
	for _, f := range m.folders {
		if f.Name == name && f.ParentID == parentID {
			return f, nil
		}
	}
	return Folder{}, fmt.Errorf("%q: %w", name, ErrFolderNotFound)
}

// Create adds a folder under parentID with a fresh id.
func (m *MemoryFolders) Create(_ context.Context, name, parentID string) (Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("create", name); err != nil {
		return Folder{}, err
	}
	f := Folder{ID: uuid.NewString(), Name: name, ParentID: parentID}
	m.folders = append(m.folders, f)
	return f, nil
}

// Rename changes the name of the folder with the given id.
func (m *MemoryFolders) Rename(_ context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("rename", id); err != nil {
		return err
	}
	for i := range m.folders {
		if m.folders[i].ID == id {
			m.folders[i].Name = name
			return nil
		}
	}
	return fmt.Errorf("%s: %w", id, ErrFolderNotFound)
}

// Delete removes the folder with the given id and everything beneath it.
func (m *MemoryFolders) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("delete", id); err != nil {
		return err
	}

	doomed := map[string]bool{id: true}
	found := false
	for _, f := range m.folders {
		if f.ID == id {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%s: %w", id, ErrFolderNotFound)
	}

	// Children always come after their parent in creation order.
	kept := m.folders[:0]
	for _, f := range m.folders {
		if doomed[f.ID] || doomed[f.ParentID] {
			doomed[f.ID] = true
			continue
		}
		kept = append(kept, f)
	}
	m.folders = kept
	return nil
}

// List returns the folders directly under parentID in name order.
func (m *MemoryFolders) List(_ context.Context, parentID string) ([]Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("list", parentID); err != nil {
		return nil, err
	}
	var out []Folder
	for _, f := range m.folders {
		if f.ParentID == parentID {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Names returns the names of the folders directly under parentID in name order.
func (m *MemoryFolders) Names(parentID string) []string {
	folders, _ := m.List(context.Background(), parentID)
	names := make([]string, len(folders))
	for i, f := range folders {
		names[i] = f.Name
	}
	return names
}
