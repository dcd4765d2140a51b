package core

import (
	"testing"

	"github.com/JonMunkholm/sheetdocs/internal/remote"
)

var (
	testCompanies = TableDefinition{
		Key:   "companies",
		Group: "Organization",
		Label: "Company",
		Table: Table{
			Name:     "Companies",
			Headers:  []string{"company_id", "name"},
			IDField:  "company_id",
			IDPrefix: "CMP",
		},
		Required: []string{"name"},
		Folder:   &FolderSpec{Root: "Companies", DisplayField: "name"},
	}
	testPersonnel = TableDefinition{
		Key:   "personnel",
		Group: "Organization",
		Label: "Personnel",
		Table: Table{
			Name:     "Personnel",
			Headers:  []string{"personnel_id", "company_id", "full_name"},
			IDField:  "personnel_id",
			IDPrefix: "PER",
		},
		Required: []string{"company_id", "full_name"},
		Folder:   &FolderSpec{Root: "Personnel", DisplayField: "full_name"},
	}
	testDocuments = TableDefinition{
		Key:   "documents",
		Group: "Documents",
		Label: "Document",
		Table: Table{
			Name:     "Documents",
			Headers:  []string{"document_id", "personnel_id", "kind"},
			IDField:  "document_id",
			IDPrefix: "DOC",
		},
	}
	testCompanyDocuments = TableDefinition{
		Key:   "company_documents",
		Group: "Documents",
		Label: "Company document",
		Table: Table{
			Name:     "CompanyDocuments",
			Headers:  []string{"document_id", "company_id", "title"},
			IDField:  "document_id",
			IDPrefix: "CDC",
		},
	}

	testRules = CascadeRules{
		"companies": {
			{Table: "personnel", Field: "company_id"},
			{Table: "company_documents", Field: "company_id"},
		},
		"personnel": {
			{Table: "documents", Field: "personnel_id"},
		},
	}
)

// setupRegistry registers the test tables and clears the registry afterwards.
func setupRegistry(t *testing.T) {
	t.Helper()
	Clear()
	for _, def := range []TableDefinition{testCompanies, testPersonnel, testDocuments, testCompanyDocuments} {
		Register(def)
	}
	t.Cleanup(Clear)
}

// newTestGrid returns a grid with the header row of every test table.
func newTestGrid() *remote.MemoryGrid {
	g := remote.NewMemoryGrid()
	for _, def := range []TableDefinition{testCompanies, testPersonnel, testDocuments, testCompanyDocuments} {
		g.Seed(def.Table.Name, [][]string{def.Table.Headers})
	}
	return g
}

type testEnv struct {
	svc     *Service
	grid    *remote.MemoryGrid
	folders *remote.MemoryFolders
	links   *MemoryLinks
	audit   *MemoryAudit
}

// newTestEnv builds a Service over in-memory clients. Pass withLinks=false
// to exercise name-based folder addressing.
func newTestEnv(t *testing.T, withLinks bool) *testEnv {
	t.Helper()
	setupRegistry(t)

	env := &testEnv{
		grid:    newTestGrid(),
		folders: remote.NewMemoryFolders(),
		audit:   NewMemoryAudit(0),
	}
	opts := Options{RootFolderID: "root", Cascades: testRules, Audit: env.audit}
	if withLinks {
		env.links = NewMemoryLinks()
		opts.Links = env.links
	}
	env.svc = NewService(env.grid, env.folders, opts)
	return env
}

// rootFolderID returns the id of a table's root folder, or "" when absent.
func (e *testEnv) rootFolderID(t *testing.T, name string) string {
	t.Helper()
	for _, f := range e.mustList(t, "root") {
		if f.Name == name {
			return f.ID
		}
	}
	return ""
}

func (e *testEnv) mustList(t *testing.T, parent string) []remote.Folder {
	t.Helper()
	folders, err := e.folders.List(t.Context(), parent)
	if err != nil {
		t.Fatalf("List(%s) error = %v", parent, err)
	}
	return folders
}
