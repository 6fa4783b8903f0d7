package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/recon/internal/diag"
	"github.com/cleared-dev/recon/internal/importer"
	"github.com/cleared-dev/recon/internal/model"
	"github.com/cleared-dev/recon/internal/reconcile"
)

const (
	ruleWidth      = 60
	maxDescription = 60
)

// Input is everything a report run is computed from.
type Input struct {
	Collection  *importer.Collection
	Groups      []reconcile.DuplicateGroup
	Diagnostics []diag.Entry
	Submitted   int // files handed to the run, including failures
	TopPatterns int
}

// WriteSummary renders the plain-text validation summary.
func WriteSummary(w io.Writer, in Input) error {
	bw := bufio.NewWriter(w)
	heavy := strings.Repeat("=", ruleWidth)
	section := func(title string) {
		light := strings.Repeat("-", ruleWidth)
		fmt.Fprintf(bw, "\n%s\n%s\n%s\n\n", light, title, light)
	}

	potential, exact := reconcile.Totals(in.Groups)
	stats := reconcile.Stats(in.Collection)
	total := 0
	for _, s := range stats {
		total += s.Count
	}

	fmt.Fprintf(bw, "%s\nTRANSACTION VALIDATION REPORT\n%s\n\n", heavy, heavy)
	fmt.Fprintf(bw, "Files Submitted: %d\n", in.Submitted)
	fmt.Fprintf(bw, "Sources Imported: %d\n", len(stats))
	fmt.Fprintf(bw, "Total Transactions: %d\n", total)
	fmt.Fprintf(bw, "Potential Duplicates: %d (%d groups)\n", potential, len(in.Groups))
	fmt.Fprintf(bw, "Exact Duplicates: %d\n", exact)

	section("SOURCE STATISTICS")
	for i, s := range stats {
		if i > 0 {
			fmt.Fprintln(bw)
		}
		fmt.Fprintf(bw, "%s:\n", s.Label)
		fmt.Fprintf(bw, "  Transactions: %d\n", s.Count)
		if s.Count > 0 {
			fmt.Fprintf(bw, "  Date Range: %s to %s\n", s.First.Format(model.DateFormat), s.Last.Format(model.DateFormat))
		}
		fmt.Fprintf(bw, "  Total Amount: %s\n", FormatAmount(s.Total))
		fmt.Fprintf(bw, "  Unique Descriptions: %d\n", s.UniqueDescriptions)
	}

	if len(in.Groups) > 0 {
		top := reconcile.TopPatterns(in.Groups, in.TopPatterns)
		section("DUPLICATE ANALYSIS")
		fmt.Fprintf(bw, "Found %d potential duplicate transactions in %d groups.\n", potential, len(in.Groups))
		fmt.Fprintln(bw, "These share booking date, amount and description. Recurring transfers")
		fmt.Fprintln(bw, "legitimately do; review duplicate_transactions.csv.")
		if len(top) > 0 {
			fmt.Fprintf(bw, "\nTop %d duplicate patterns:\n", len(top))
			for _, g := range top {
				fmt.Fprintf(bw, "  %dx: %s | %s | %s\n", g.Count(), g.Key.Date, keyAmount(g.Key), truncate(g.Key.Description, maxDescription))
			}
		}
	}

	if exact > 0 {
		section("EXACT DUPLICATES")
		fmt.Fprintf(bw, "Found %d exact duplicate transactions.\n", exact)
		fmt.Fprintln(bw, "These are identical in every field; review exact_duplicates.csv.")
	}

	if len(in.Diagnostics) > 0 {
		var fatal, rows int
		for _, d := range in.Diagnostics {
			if d.Kind.Fatal() {
				fatal++
			} else {
				rows++
			}
		}
		section("DIAGNOSTICS")
		fmt.Fprintf(bw, "%d file(s) failed, %d row warning(s); see diagnostics.csv.\n\n", fatal, rows)
		for _, d := range in.Diagnostics {
			fmt.Fprintf(bw, "  %s\n", d)
		}
	}

	fmt.Fprintf(bw, "\n%s\n", heavy)
	return bw.Flush()
}

func keyAmount(k model.Key) string {
	d, err := decimal.NewFromString(k.Amount)
	if err != nil {
		return k.Amount
	}
	return FormatAmount(d)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
