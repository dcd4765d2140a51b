// Package core provides the business logic for spreadsheet-backed tables.
//
// This package is the heart of the document backend, containing all domain
// logic independent of any transport. It can be used by web handlers, CLI
// tools, or tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Schema mapping: [ToRecords] and [ToRow] convert between positional
//     rows and header-keyed [Record] values.
//   - Store: [Store] is the generic CRUD engine. Rows are addressed by
//     their sheet position, recomputed from a fresh read on every mutation.
//   - Cascades: [Cascader] deletes dependent rows across tables, following a
//     static [CascadeRules] map, before deleting a parent row.
//   - Folder sync: [FolderSync] mirrors row create/rename/delete into the
//     remote folder tree.
//   - Views: [LeftJoin] and [Service.View] compose several tables into
//     denormalized rows.
//   - Audit: every successful mutation is appended to an [AuditSink] by
//     [Service.LogAudit]; [Service.GetAuditLog] reads it back newest first.
//   - Service: [Service] is the entry point combining all of the above.
//
// # Table Registry
//
// Tables are registered at init time using [Register]:
//
//	core.Register(core.TableDefinition{
//	    Key:   "companies",
//	    Group: "Organization",
//	    Table: core.Table{
//	        Name:     "Companies",
//	        Headers:  []string{"company_id", "name"},
//	        IDField:  "company_id",
//	        IDPrefix: "CMP",
//	    },
//	    Required: []string{"name"},
//	    Folder:   &core.FolderSpec{Root: "Companies", DisplayField: "name"},
//	})
//
// # Consistency
//
// The remote spreadsheet offers no transactions, constraints or row
// versions. Mutations on one table are serialized inside this process, but
// concurrent writers in other processes can still shift rows between a read
// and the write that follows it. Cascades are best effort and folder sync
// failures are reported as warnings, so tables and folders may diverge.
//
// # Error Handling
//
// Errors are typed ([NotFoundError], [SchemaError], [ValidationError],
// [RemoteIOError], [PartialCascadeError]) and mapped to user-friendly
// messages with support codes by [MapError].
package core
