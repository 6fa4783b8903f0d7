package normalize

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Column is a canonical input field.
type Column string

const (
	ColBookingDate Column = "booking_date"
	ColAmount      Column = "amount"
	ColSender      Column = "sender"
	ColReceiver    Column = "receiver"
	ColName        Column = "name"
	ColDescription Column = "description"
	ColBalance     Column = "balance"
	ColCurrency    Column = "currency"
	ColReconciled  Column = "reconciled"
)

var canonicalColumns = []Column{
	ColBookingDate, ColAmount, ColSender, ColReceiver, ColName,
	ColDescription, ColBalance, ColCurrency, ColReconciled,
}

// requiredColumns must be present in every input header.
var requiredColumns = []Column{ColBookingDate, ColAmount, ColDescription}

// ParseColumn validates a canonical column name from configuration.
func ParseColumn(s string) (Column, error) {
	for _, c := range canonicalColumns {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown column %q", s)
}

// ColumnTable maps locale header names to canonical columns.
// Lookups try the exact header first and fall back to MatchColumn.
type ColumnTable struct {
	exact  map[string]Column
	folded map[string]Column
}

// NewColumnTable builds a table from header -> canonical name pairs.
func NewColumnTable(columns map[string]string) (*ColumnTable, error) {
	t := &ColumnTable{
		exact:  make(map[string]Column, len(columns)),
		folded: make(map[string]Column, len(columns)+len(canonicalColumns)),
	}
	// Canonical names are always accepted, so already-normalized exports load.
	for _, c := range canonicalColumns {
		t.folded[foldHeader(string(c))] = c
	}
	for header, name := range columns {
		c, err := ParseColumn(name)
		if err != nil {
			return nil, fmt.Errorf("header %q: %w", header, err)
		}
		t.exact[header] = c
		t.folded[foldHeader(header)] = c
	}
	return t, nil
}

// Lookup returns the canonical column for header, if any.
func (t *ColumnTable) Lookup(header string) (Column, bool) {
	if c, ok := t.exact[header]; ok {
		return c, true
	}
	return t.MatchColumn(header)
}

// MatchColumn is the fuzzy fallback: it compares case-, accent- and
// punctuation-folded forms of header against the table.
func (t *ColumnTable) MatchColumn(header string) (Column, bool) {
	key := foldHeader(header)
	if key == "" {
		return "", false
	}
	c, ok := t.folded[key]
	return c, ok
}

var letterFolds = strings.NewReplacer("æ", "ae", "ø", "oe", "å", "aa", "œ", "oe", "ß", "ss")

// foldHeader lower-cases s, spells out letters that have no decomposition,
// strips combining marks and drops everything that is not a letter or digit.
// "Bogførings-dato " and "bogfoeringsdato" fold to the same key.
func foldHeader(s string) string {
	s = letterFolds.Replace(strings.ToLower(strings.TrimSpace(s)))
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, folded)
}
