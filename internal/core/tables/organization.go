package tables

import "github.com/JonMunkholm/sheetdocs/internal/core"

func init() {
	registerCompanies()
	registerPersonnel()
}

func registerCompanies() {
	core.Register(core.TableDefinition{
		Key:   Companies,
		Group: "Organization",
		Label: "Company",
		Table: core.Table{
			Name:     "Companies",
			Headers:  []string{"company_id", "name", "tax_id", "address", "phone", "email", "created_at"},
			IDField:  "company_id",
			IDPrefix: "CMP",
		},
		Required: []string{"name"},
		Folder:   &core.FolderSpec{Root: "Companies", DisplayField: "name"},
	})
}

func registerPersonnel() {
	core.Register(core.TableDefinition{
		Key:   Personnel,
		Group: "Organization",
		Label: "Personnel",
		Table: core.Table{
			Name:     "Personnel",
			Headers:  []string{"personnel_id", "company_id", "full_name", "national_id", "position", "phone", "email", "created_at"},
			IDField:  "personnel_id",
			IDPrefix: "PER",
		},
		Required: []string{"company_id", "full_name"},
		Folder:   &core.FolderSpec{Root: "Personnel", DisplayField: "full_name"},
	})
}
