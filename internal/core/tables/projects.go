package tables

import "github.com/JonMunkholm/sheetdocs/internal/core"

func init() {
	core.Register(core.TableDefinition{
		Key:   Projects,
		Group: "Projects",
		Label: "Project",
		Table: core.Table{
			Name:     "Projects",
			Headers:  []string{"project_id", "company_id", "name", "client", "start_date", "end_date", "status"},
			IDField:  "project_id",
			IDPrefix: "PRJ",
		},
		Required: []string{"company_id", "name"},
		Folder:   &core.FolderSpec{Root: "Projects", DisplayField: "name"},
	})

	// Assignments link projects and personnel (many-to-many).
	core.Register(core.TableDefinition{
		Key:   Assignments,
		Group: "Projects",
		Label: "Assignment",
		Table: core.Table{
			Name:     "Assignments",
			Headers:  []string{"assignment_id", "project_id", "personnel_id", "role", "assigned_at"},
			IDField:  "assignment_id",
			IDPrefix: "ASG",
		},
		Required: []string{"project_id", "personnel_id"},
	})
}
