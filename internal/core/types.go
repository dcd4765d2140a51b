package core

import "context"

// TableClient is the subset of the remote spreadsheet client used by the
// store. Positions are 1-based sheet rows; position 1 is the header.
type TableClient interface {
	Values(ctx context.Context, sheet string) ([][]string, error)
	WriteRow(ctx context.Context, sheet string, position int, row []string) error
	DeleteRows(ctx context.Context, sheet string, positions []int) error
}

// Table describes one tab used as a relational table.
type Table struct {
	Name     string   // Tab title: "Companies"
	Headers  []string // Expected header row, used to provision the tab
	IDField  string   // Column holding the synthetic primary key
	IDPrefix string   // Prefix for generated ids: "CMP"
}

// FolderSpec configures the folder mirrored for each row of a table.
type FolderSpec struct {
	Root         string // Name of the parent folder holding one folder per row
	DisplayField string // Column whose value is embedded in the folder name
}

// TableDefinition contains everything needed to serve a table.
type TableDefinition struct {
	Key      string   // Unique identifier used in URLs: "companies"
	Group    string   // Display grouping: "Documents"
	Label    string   // Display name: "Companies"
	Table    Table    // Remote tab layout
	Required []string // Fields that must be non-empty on create
	Folder   *FolderSpec
}

// Dependent names a table holding a foreign key to a parent table.
type Dependent struct {
	Table string // Table key of the dependent table
	Field string // Foreign-key column referencing the parent id
}

// CascadeRules maps a parent table key to the dependents deleted with it.
type CascadeRules map[string][]Dependent

// JoinSpec decorates each row with the first matching row of another table.
type JoinSpec struct {
	Table      string // Table key of the secondary table
	LocalKey   string // Field of the primary row
	ForeignKey string // Field of the secondary row
	As         string // Name the matched row is attached under
}

// ViewDefinition is a named, denormalized composition of several tables.
type ViewDefinition struct {
	Name    string
	Label   string
	Primary string // Table key of the primary table
	Joins   []JoinSpec
}

// Change describes a row mutation. Ordinal is the row's 1-based position
// among live rows at the time of the mutation; Position is its sheet row.
type Change struct {
	Ordinal  int
	Position int
	Before   Record
	After    Record
}

// Result is the outcome of a mutating operation as reported to callers.
// Partial failures keep Success true and carry a Warning.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// addWarning appends msg to the result's warning.
func (r *Result) addWarning(msg string) {
	if r.Warning == "" {
		r.Warning = msg
		return
	}
	r.Warning += "; " + msg
}
