package cmd

import (
	"fmt"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	inspectRows int
	inspectJSON bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Load a CSV or Excel file and show a preview with general information",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		typ, err := resolveFileType(path)
		if err != nil {
			return err
		}
		ds, err := dataset.LoadFile(path, typ, dataset.Options{MaxRows: cfg.MaxRows, Sheet: flagSheet})
		if err != nil {
			return err
		}
		rows := inspectRows
		if !cmd.Flags().Changed("rows") && cfg.PreviewRows > 0 {
			rows = cfg.PreviewRows
		}
		out := cmd.OutOrStdout()
		if inspectJSON {
			s, err := utils.PrettyJSON(struct {
				Name    string       `json:"name"`
				Columns []string     `json:"columns"`
				Preview [][]string   `json:"preview"`
				Info    dataset.Info `json:"info"`
			}{ds.Name, ds.Columns(), ds.Head(rows), ds.Info()})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(s))
			return nil
		}
		fmt.Fprintln(out, "Data Preview:")
		printPreview(out, ds, rows)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "General Information:")
		printInfo(out, ds.Info())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntVar(&inspectRows, "rows", 5, "number of preview rows")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print machine-readable JSON")
}
