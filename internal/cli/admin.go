package cli

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetdocs/internal/admin"
	"github.com/JonMunkholm/sheetdocs/internal/core"
	"github.com/JonMunkholm/sheetdocs/internal/linkstore"
)

func newProvisionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Create missing tabs with their header rows",
		Long: `Create a tab for every registered table that has none and write its header
row. Existing tabs are never modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			created, err := core.Provision(cmd.Context(), getApp(cmd).Grid, core.All())
			if err != nil {
				return err
			}
			if len(created) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "all tabs present")
				return nil
			}
			for _, name := range created {
				fmt.Fprintln(cmd.OutOrStdout(), "created", name)
			}
			return nil
		},
	}
}

func newResetCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset [table...]",
		Short: "Blank every data row of the given tables (all when none given)",
		Long: `Blank every row below the header of the given tables. Cascade rules are not
applied and folders are left in place. This cannot be undone.`,
		Example: "  sheetctl reset assignments --yes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset is destructive; pass --yes to confirm")
			}

			defs := core.All()
			if len(args) > 0 {
				defs = defs[:0:0]
				for _, key := range args {
					def, ok := core.Get(key)
					if !ok {
						return fmt.Errorf("%w: %s", core.ErrUnknownTable, key)
					}
					defs = append(defs, def)
				}
			}

			app := getApp(cmd)
			r := &admin.Resetter{Grid: app.Grid}
			cleared, err := r.Reset(cmd.Context(), defs)
			for i, name := range cleared {
				fmt.Fprintln(cmd.OutOrStdout(), "reset", name)
				if _, aerr := app.Service.LogAudit(cmd.Context(), core.AuditLogParams{
					Action:   core.ActionTableReset,
					TableKey: defs[i].Key,
					Reason:   "sheetctl reset",
				}); aerr != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning: audit entry not stored:", aerr)
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func newRenameTabCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename-tab <old> <new>",
		Short: "Rename a spreadsheet tab",
		Long: `Rename a spreadsheet tab. Table definitions address tabs by name, so a
renamed tab is only used again once its definition matches.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := getApp(cmd).Grid.RenameSheet(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed %s to %s\n", args[0], args[1])
			return nil
		},
	}
}

func newLinksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "links",
		Short: "Show stored folder link counts per table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, ok := getApp(cmd).Links.(*linkstore.Postgres)
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "folder links are kept in memory; set LINKS_DATABASE_URL to persist them")
				return nil
			}
			var rows []table.Row
			for _, def := range core.All() {
				if def.Folder == nil {
					continue
				}
				n, err := store.Count(cmd.Context(), def.Key)
				if err != nil {
					return err
				}
				rows = append(rows, table.Row{def.Key, n})
			}
			renderTable(cmd.OutOrStdout(), table.Row{"Table", "Links"}, rows)
			return nil
		},
	}
}

func newAuditCommand() *cobra.Command {
	var (
		filter core.AuditLogFilter
		action string
	)

	cmd := &cobra.Command{
		Use:     "audit",
		Short:   "Show recent table mutations, newest first",
		Example: "  sheetctl audit --table personnel --limit 20",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter.Action = core.AuditAction(action)
			entries, err := getApp(cmd).Service.GetAuditLog(cmd.Context(), filter)
			if err != nil {
				return err
			}

			rows := make([]table.Row, len(entries))
			for i, e := range entries {
				rows[i] = table.Row{
					e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, e.Severity,
					e.TableKey, e.RowKey, e.RowsAffected, e.Reason,
				}
			}
			renderTable(cmd.OutOrStdout(),
				table.Row{"Time", "Action", "Severity", "Table", "Row", "Rows", "Reason"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.TableKey, "table", "", "only entries for this table")
	cmd.Flags().StringVar(&action, "action", "", "only entries with this action (row_create, row_delete, ...)")
	cmd.Flags().IntVar(&filter.Limit, "limit", core.DefaultHistoryLimit, "maximum entries to show")
	return cmd
}
