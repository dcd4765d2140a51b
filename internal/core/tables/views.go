package tables

import "github.com/JonMunkholm/sheetdocs/internal/core"

func init() {
	core.RegisterView(core.ViewDefinition{
		Name:    "personnel_identity",
		Label:   "Personnel with identity document",
		Primary: Personnel,
		Joins: []core.JoinSpec{
			{Table: IdentityDocuments, LocalKey: "personnel_id", ForeignKey: "personnel_id", As: "identity"},
		},
	})

	core.RegisterView(core.ViewDefinition{
		Name:    "company_personnel",
		Label:   "Personnel with company",
		Primary: Personnel,
		Joins: []core.JoinSpec{
			{Table: Companies, LocalKey: "company_id", ForeignKey: "company_id", As: "company"},
		},
	})

	core.RegisterView(core.ViewDefinition{
		Name:    "assignments_detail",
		Label:   "Assignments with project and personnel",
		Primary: Assignments,
		Joins: []core.JoinSpec{
			{Table: Projects, LocalKey: "project_id", ForeignKey: "project_id", As: "project"},
			{Table: Personnel, LocalKey: "personnel_id", ForeignKey: "personnel_id", As: "personnel"},
		},
	})
}
