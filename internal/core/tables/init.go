// Package tables registers all table and view definitions with the core
// registry. Import this package to ensure all tables are registered.
package tables

import "github.com/JonMunkholm/sheetdocs/internal/core"

// Table keys.
const (
	Companies         = "companies"
	Personnel         = "personnel"
	IdentityDocuments = "identity_documents"
	Certificates      = "certificates"
	CompanyDocuments  = "company_documents"
	Projects          = "projects"
	Assignments       = "assignments"
)

// Cascades lists, for each parent table, the dependent tables whose rows
// referencing the parent are deleted with it.
var Cascades = core.CascadeRules{
	Companies: {
		{Table: Personnel, Field: "company_id"},
		{Table: CompanyDocuments, Field: "company_id"},
		{Table: Projects, Field: "company_id"},
	},
	Personnel: {
		{Table: IdentityDocuments, Field: "personnel_id"},
		{Table: Certificates, Field: "personnel_id"},
		{Table: Assignments, Field: "personnel_id"},
	},
	Projects: {
		{Table: Assignments, Field: "project_id"},
	},
}
