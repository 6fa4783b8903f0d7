package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/recon/internal/config"
	"github.com/cleared-dev/recon/internal/normalize"
	"github.com/cleared-dev/recon/internal/pipeline"
	"github.com/cleared-dev/recon/internal/reconcile"
)

// runFlags are the config overrides shared by process and compare.
type runFlags struct {
	out     string
	locale  string
	workers int
	top     int
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output directory (overrides output.dir)")
	cmd.Flags().StringVar(&f.locale, "locale", "", "locale profile name (overrides locale)")
	cmd.Flags().IntVarP(&f.workers, "workers", "j", 0, "files normalized in parallel (overrides workers)")
	cmd.Flags().IntVar(&f.top, "top", -1, "duplicate patterns listed in the summary (overrides summary.top_patterns)")
}

func (f *runFlags) apply(cfg *config.Config) error {
	if f.out != "" {
		cfg.Output.Dir = f.out
	}
	if f.locale != "" {
		cfg.Locale = f.locale
	}
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	if f.top >= 0 {
		cfg.Summary.TopPatterns = f.top
	}
	return cfg.Validate()
}

func (g *globalFlags) newRunner(f *runFlags) (*pipeline.Runner, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := f.apply(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	reg, err := normalize.NewRegistry(cfg.Locales)
	if err != nil {
		return nil, err
	}
	norm := reg.Get(cfg.Locale)
	if norm == nil {
		return nil, fmt.Errorf("locale %q is not defined", cfg.Locale)
	}

	return pipeline.New(norm, pipeline.Options{
		OutputDir:   cfg.Output.Dir,
		ReportDir:   cfg.Output.ReportDir,
		Workers:     cfg.Workers,
		TopPatterns: cfg.Summary.TopPatterns,
	}, g.logger().With().Str("run", uuid.NewString()).Logger()), nil
}

func newProcessCommand(g *globalFlags) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "process <file>...",
		Short: "Normalize statement files and write reconciliation reports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.newRunner(f)
			if err != nil {
				return err
			}

			res, err := r.Run(cmd.Context(), args)
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), res)

			if res.Failed() == len(res.Files) {
				return errors.New("no files could be imported")
			}
			return nil
		},
	}
	f.register(cmd)

	return cmd
}

func printOutcome(w io.Writer, res *pipeline.Outcome) {
	potential, exact := reconcile.Totals(res.Groups)
	fmt.Fprintf(w, "Imported %d of %d file(s), %d transaction(s)\n",
		res.Collection.Len(), len(res.Files), len(res.Collection.Records()))
	if n := res.Failed(); n > 0 {
		fmt.Fprintf(w, "Failed: %d file(s)\n", n)
	}
	fmt.Fprintf(w, "Potential duplicates: %d in %d group(s), exact: %d\n", potential, len(res.Groups), exact)
	if len(res.Diagnostics) > 0 {
		fmt.Fprintf(w, "Diagnostics: %d\n", len(res.Diagnostics))
		for _, d := range res.Diagnostics {
			if d.Kind.Fatal() {
				fmt.Fprintf(w, "  %s\n", d)
			}
		}
	}
	for _, p := range res.Written {
		fmt.Fprintf(w, "Wrote %s\n", p)
	}
}
