package reconcile

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/recon/internal/importer"
	"github.com/cleared-dev/recon/internal/model"
)

// Comparison is the key-level difference between two batches.
type Comparison struct {
	LabelA, LabelB string
	CountA, CountB int
	OnlyA          []model.Key
	OnlyB          []model.Key
	Both           []model.Key

	// Records behind each key set. Matches come from batch A.
	OnlyARecords []model.Transaction
	OnlyBRecords []model.Transaction
	Matches      []model.Transaction
}

// CompareBatches computes which keys appear in only one of two batches.
// It is used to reconcile transfers between two accounts.
func CompareBatches(c *importer.Collection, labelA, labelB string) (*Comparison, error) {
	a, ok := c.Get(labelA)
	if !ok {
		return nil, fmt.Errorf("unknown source %q (have %v)", labelA, c.Labels())
	}
	b, ok := c.Get(labelB)
	if !ok {
		return nil, fmt.Errorf("unknown source %q (have %v)", labelB, c.Labels())
	}

	keysA := keySet(a.Records)
	keysB := keySet(b.Records)

	cmp := &Comparison{
		LabelA: labelA,
		LabelB: labelB,
		CountA: len(a.Records),
		CountB: len(b.Records),
	}
	for k := range keysA {
		if keysB[k] {
			cmp.Both = append(cmp.Both, k)
		} else {
			cmp.OnlyA = append(cmp.OnlyA, k)
		}
	}
	for k := range keysB {
		if !keysA[k] {
			cmp.OnlyB = append(cmp.OnlyB, k)
		}
	}
	sortKeys(cmp.Both)
	sortKeys(cmp.OnlyA)
	sortKeys(cmp.OnlyB)

	for _, r := range a.Records {
		if keysB[r.Key()] {
			cmp.Matches = append(cmp.Matches, r)
		} else {
			cmp.OnlyARecords = append(cmp.OnlyARecords, r)
		}
	}
	for _, r := range b.Records {
		if !keysA[r.Key()] {
			cmp.OnlyBRecords = append(cmp.OnlyBRecords, r)
		}
	}
	return cmp, nil
}

func keySet(recs []model.Transaction) map[model.Key]bool {
	s := make(map[model.Key]bool, len(recs))
	for _, r := range recs {
		s[r.Key()] = true
	}
	return s
}

func sortKeys(keys []model.Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Compare(keys[j]) < 0 })
}

// SourceStats summarizes one batch.
type SourceStats struct {
	Label              string
	Count              int
	First, Last        time.Time // booking date range, zero when empty
	Total              decimal.Decimal
	UniqueDescriptions int
}

// Stats returns per-source statistics in insertion order.
func Stats(c *importer.Collection) []SourceStats {
	batches := c.Batches()
	out := make([]SourceStats, 0, len(batches))
	for _, b := range batches {
		s := SourceStats{Label: b.Label, Count: len(b.Records), Total: decimal.Zero}
		seen := make(map[string]bool)
		for i, r := range b.Records {
			if i == 0 || r.BookingDate.Before(s.First) {
				s.First = r.BookingDate
			}
			if i == 0 || r.BookingDate.After(s.Last) {
				s.Last = r.BookingDate
			}
			s.Total = s.Total.Add(r.Amount)
			seen[r.Description] = true
		}
		s.UniqueDescriptions = len(seen)
		out = append(out, s)
	}
	return out
}
