package reconcile

import (
	"sort"
	"strings"

	"github.com/cleared-dev/recon/internal/importer"
	"github.com/cleared-dev/recon/internal/model"
)

// DuplicateGroup is a set of records sharing a Key.
type DuplicateGroup struct {
	Key     model.Key
	Records []model.Transaction // collection order
	Exact   [][]model.Transaction
}

// Count is the number of records sharing the key.
func (g DuplicateGroup) Count() int { return len(g.Records) }

// FindDuplicates groups every record in c by key and returns the groups with
// two or more members, sorted by key. Within each group, records equal in
// every field are collected into Exact subgroups.
func FindDuplicates(c *importer.Collection) []DuplicateGroup {
	byKey := make(map[model.Key][]model.Transaction)
	for _, r := range c.Records() {
		k := r.Key()
		byKey[k] = append(byKey[k], r)
	}

	var groups []DuplicateGroup
	for k, recs := range byKey {
		if len(recs) < 2 {
			continue
		}
		groups = append(groups, DuplicateGroup{Key: k, Records: recs, Exact: exactSubgroups(recs)})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Key.Compare(groups[j].Key) < 0
	})
	return groups
}

// exactSubgroups buckets recs by full field equality, keeping first-seen order.
func exactSubgroups(recs []model.Transaction) [][]model.Transaction {
	index := make(map[string]int)
	var buckets [][]model.Transaction
	for _, r := range recs {
		fp := fingerprint(r)
		i, ok := index[fp]
		if !ok {
			i = len(buckets)
			index[fp] = i
			buckets = append(buckets, nil)
		}
		buckets[i] = append(buckets[i], r)
	}

	var out [][]model.Transaction
	for _, b := range buckets {
		if len(b) >= 2 {
			out = append(out, b)
		}
	}
	return out
}

// fingerprint encodes every field that makes two records identical. The
// source label and statement file date say where a record was seen, not what
// it is, so they are left out.
func fingerprint(r model.Transaction) string {
	var b strings.Builder
	field := func(s string) {
		b.WriteString(s)
		b.WriteByte(0)
	}
	field(r.BookingDate.Format(model.DateFormat))
	field(r.PurchaseDate.Format(model.DateFormat))
	field(r.Amount.String())
	field(r.Description)
	field(r.Sender)
	field(r.Receiver)
	field(r.Name)
	if r.Balance.Valid {
		field(r.Balance.Decimal.String())
	} else {
		field("\x01")
	}
	field(r.Currency)
	field(r.AccountNumber)
	field(string(r.Status))
	for _, e := range r.Extra {
		field(e.Name)
		field(e.Value)
	}
	return b.String()
}

// Totals counts records in potential and exact duplicate groups.
func Totals(groups []DuplicateGroup) (potential, exact int) {
	for _, g := range groups {
		potential += g.Count()
		for _, sub := range g.Exact {
			exact += len(sub)
		}
	}
	return potential, exact
}

// TopPatterns returns up to n groups ordered by size, largest first. Equal
// sizes keep key order.
func TopPatterns(groups []DuplicateGroup, n int) []DuplicateGroup {
	out := append([]DuplicateGroup(nil), groups...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count() > out[j].Count()
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}
