package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/datalens-cli/internal/session"
	"github.com/spf13/cobra"
)

var chatOutDir string

var chatCmd = &cobra.Command{
	Use:   "chat [file]",
	Short: "Interactive session: load a dataset and ask questions one by one",
	Long: `Start an interactive session. Type a question per line.

Commands:
  :load <file>   load (or replace) the dataset
  :key <key>     authenticate again, e.g. after the provider rejected the key
  :info          show the preview and general information again
  :quit          leave the session

Charts are saved as chart-<n>.<format> in --out-dir.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		s, rend, err := newSession(cfg, nil)
		if err != nil {
			return err
		}
		if err := authenticate(ctx, s, cfg.APIKey); err != nil {
			return err
		}
		load := func(path string) {
			ds, err := loadInto(s, path)
			if err != nil {
				fmt.Fprintln(out, "✗ Error:", err)
				return
			}
			fmt.Fprintf(out, "✓ Loaded %s\n", ds.Name)
			printPreview(out, ds, cfg.PreviewRows)
			printInfo(out, ds.Info())
		}
		if len(args) == 1 {
			load(args[0])
		}

		n := 0
		sc := bufio.NewScanner(cmd.InOrStdin())
		fmt.Fprint(out, "> ")
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			switch {
			case line == "":
			case line == ":quit" || line == ":q" || line == ":exit":
				return nil
			case strings.HasPrefix(line, ":load "):
				load(strings.TrimSpace(strings.TrimPrefix(line, ":load ")))
			case line == ":key" || strings.HasPrefix(line, ":key "):
				if err := authenticate(ctx, s, strings.TrimSpace(strings.TrimPrefix(line, ":key"))); err != nil {
					fmt.Fprintln(out, "✗ Error:", err)
				} else {
					fmt.Fprintln(out, "✓ Authenticated")
				}
			case line == ":info":
				if ds := s.Dataset(); ds != nil {
					printPreview(out, ds, cfg.PreviewRows)
					printInfo(out, ds.Info())
				} else {
					fmt.Fprintln(out, "No dataset loaded")
				}
			default:
				res, err := s.Ask(ctx, line)
				if err != nil {
					fmt.Fprintln(out, "✗ Error:", err)
					if errors.Is(err, session.ErrNotAuthenticated) {
						fmt.Fprintln(out, "  use :key <api key> to authenticate again")
					}
					break
				}
				path := ""
				if res.Chart != nil {
					n++
					path = filepath.Join(chatOutDir, fmt.Sprintf("chart-%d.%s", n, rend.Format()))
				}
				if err := writeOutcome(out, res, path, flagPretty); err != nil {
					fmt.Fprintln(out, "✗ Error:", err)
				}
			}
			fmt.Fprint(out, "> ")
		}
		fmt.Fprintln(out)
		return sc.Err()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatOutDir, "out-dir", ".", "directory for rendered charts")
}
