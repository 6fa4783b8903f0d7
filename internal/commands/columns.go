package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/recon/internal/normalize"
)

func newColumnsCommand(g *globalFlags) *cobra.Command {
	var locale string

	cmd := &cobra.Command{
		Use:   "columns <file>",
		Short: "Show a statement's header columns and the fields they map to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if locale != "" {
				cfg.Locale = locale
			}
			reg, err := normalize.NewRegistry(cfg.Locales)
			if err != nil {
				return err
			}
			norm := reg.Get(cfg.Locale)
			if norm == nil {
				return fmt.Errorf("locale %q is not defined", cfg.Locale)
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			sheets, err := norm.Inspect(args[0], data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, s := range sheets {
				fmt.Fprintf(out, "%s:\n", s.Name)
				for _, c := range s.Columns {
					col := string(c.Column)
					if col == "" {
						col = "(unmapped)"
					}
					fmt.Fprintf(out, "  %s -> %s\n", c.Header, col)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&locale, "locale", "", "locale profile name (overrides locale)")

	return cmd
}
