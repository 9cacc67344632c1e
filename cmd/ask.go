package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askOut string

var askCmd = &cobra.Command{
	Use:   "ask <file> <query...>",
	Short: "Ask one question about a CSV or Excel file",
	Long: `Load a dataset, route the question and print the result.

Chart questions save an image (default chart.<format>):
  datalens ask songs.csv "show the distribution of popularity"
  datalens ask songs.csv "scatter danceability vs energy" --out de.png
  datalens ask songs.csv "bar chart of popularity by artist"

Any other question is answered by the configured model:
  datalens ask songs.csv "which artist appears most often?"`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, rend, err := newSession(cfg, nil)
		if err != nil {
			return err
		}
		if err := authenticate(cmd.Context(), s, cfg.APIKey); err != nil {
			return err
		}
		if _, err := loadInto(s, args[0]); err != nil {
			return err
		}
		out, err := s.Ask(cmd.Context(), strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		path := askOut
		if path == "" {
			path = fmt.Sprintf("chart.%s", rend.Format())
		}
		return writeOutcome(cmd.OutOrStdout(), out, path, flagPretty)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askOut, "out", "o", "", "chart output path (default chart.<format>)")
}
