package cmd

import (
	"fmt"

	"github.com/KaramelBytes/datalens-cli/internal/ai"
	"github.com/KaramelBytes/datalens-cli/internal/chart"
	cfgpkg "github.com/KaramelBytes/datalens-cli/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set DataLens configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		vals := map[string]any{}
		if err := yaml.Unmarshal(b, &vals); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		for _, k := range cfgpkg.Keys {
			v, ok := vals[k]
			if !ok {
				continue
			}
			if k == "api_key" {
				v = mask(cfg.APIKey)
			}
			fmt.Fprintf(out, "%s: %v\n", k, v)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "provider":
			if _, ok := ai.PresetFor(val); !ok {
				return fmt.Errorf("invalid provider: %s (available: %v)", val, ai.Providers())
			}
			val = ai.NormalizeProvider(val)
		case "chart_format":
			if _, err := chart.ParseFormat(val); err != nil {
				return err
			}
		}
		if err := cfg.Set(key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
