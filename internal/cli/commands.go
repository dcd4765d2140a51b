package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetdocs/internal/core"
)

func newTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List registered tables and views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()

			var rows []table.Row
			for _, def := range core.All() {
				folders := "-"
				if def.Folder != nil {
					folders = def.Folder.Root + "/" + def.Folder.DisplayField
				}
				rows = append(rows, table.Row{
					def.Key, def.Group, def.Table.Name, def.Table.IDField, def.Table.IDPrefix, folders,
				})
			}
			renderTable(w, table.Row{"Key", "Group", "Sheet", "ID", "Prefix", "Folders"}, rows)

			views := core.Views()
			if len(views) == 0 {
				return nil
			}
			rows = rows[:0]
			for _, v := range views {
				joins := make([]string, len(v.Joins))
				for i, j := range v.Joins {
					joins[i] = j.Table
				}
				rows = append(rows, table.Row{v.Name, v.Primary, strings.Join(joins, ", ")})
			}
			fmt.Fprintln(w)
			renderTable(w, table.Row{"View", "Primary", "Joins"}, rows)
			return nil
		},
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list <table>",
		Short:   "Print every live row of a table as JSON",
		Example: "  sheetctl list companies",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := getApp(cmd).Service.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if records == nil {
				records = []core.Record{}
			}
			return printJSON(cmd.OutOrStdout(), records)
		},
	}
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "get <table> <id>",
		Short:   "Print one row as JSON",
		Example: "  sheetctl get personnel PER004",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := getApp(cmd).Service.Get(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <id>",
		Short: "Delete a row with its dependents and folder",
		Long: `Delete a row together with every dependent row in the cascade rules, then
remove its folder. Dependent or folder failures are reported as warnings.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := getApp(cmd).Service.Delete(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			printResult(cmd, result)
			return nil
		},
	}
}

func newDeleteManyCommand() *cobra.Command {
	var field, value string

	cmd := &cobra.Command{
		Use:     "delete-many <table>",
		Short:   "Delete every row whose field equals a value",
		Example: "  sheetctl delete-many assignments --field project_id --value PRJ002",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := getApp(cmd).Service.DeleteMany(cmd.Context(), args[0], field, value)
			if err != nil {
				return err
			}
			printResult(cmd, result)
			return nil
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "column to match")
	cmd.Flags().StringVar(&value, "value", "", "value to match")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

func newViewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view <name>",
		Short: "Print a joined view as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := getApp(cmd).Service.View(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if rows == nil {
				rows = []core.Joined{}
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	}
}

func newFoldersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "folders <table>",
		Short: "List the folders mirrored for a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folders, err := getApp(cmd).Service.Folders(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rows := make([]table.Row, len(folders))
			for i, f := range folders {
				rows[i] = table.Row{f.Name, f.ID}
			}
			renderTable(cmd.OutOrStdout(), table.Row{"Name", "ID"}, rows)
			return nil
		},
	}
}

// printResult writes a result message, and its warning to stderr.
func printResult(cmd *cobra.Command, result *core.Result) {
	fmt.Fprintln(cmd.OutOrStdout(), result.Message)
	if result.Warning != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", result.Warning)
	}
}
