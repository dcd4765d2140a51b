package tables

import "github.com/JonMunkholm/sheetdocs/internal/core"

func init() {
	core.Register(core.TableDefinition{
		Key:   IdentityDocuments,
		Group: "Documents",
		Label: "Identity document",
		Table: core.Table{
			Name:     "IdentityDocuments",
			Headers:  []string{"document_id", "personnel_id", "kind", "number", "issued_at", "expires_at", "file_id"},
			IDField:  "document_id",
			IDPrefix: "IDD",
		},
		Required: []string{"personnel_id", "kind"},
	})

	core.Register(core.TableDefinition{
		Key:   Certificates,
		Group: "Documents",
		Label: "Certificate",
		Table: core.Table{
			Name:     "Certificates",
			Headers:  []string{"document_id", "personnel_id", "title", "issuer", "issued_at", "expires_at", "file_id"},
			IDField:  "document_id",
			IDPrefix: "CRT",
		},
		Required: []string{"personnel_id", "title"},
	})

	core.Register(core.TableDefinition{
		Key:   CompanyDocuments,
		Group: "Documents",
		Label: "Company document",
		Table: core.Table{
			Name:     "CompanyDocuments",
			Headers:  []string{"document_id", "company_id", "kind", "title", "number", "issued_at", "expires_at", "file_id"},
			IDField:  "document_id",
			IDPrefix: "CDC",
		},
		Required: []string{"company_id", "kind"},
	})
}
