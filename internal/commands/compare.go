package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCompareCommand(g *globalFlags) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "compare <file-a> <file-b>",
		Short: "List transactions present in only one of two statements",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.newRunner(f)
			if err != nil {
				return err
			}

			cmp, _, err := r.Compare(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d transaction(s)\n", cmp.LabelA, cmp.CountA)
			fmt.Fprintf(out, "%s: %d transaction(s)\n", cmp.LabelB, cmp.CountB)
			fmt.Fprintf(out, "Matched keys: %d\n", len(cmp.Both))
			fmt.Fprintf(out, "Only in %s: %d\n", cmp.LabelA, len(cmp.OnlyA))
			fmt.Fprintf(out, "Only in %s: %d\n", cmp.LabelB, len(cmp.OnlyB))
			return nil
		},
	}
	f.register(cmd)

	return cmd
}
