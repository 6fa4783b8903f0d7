package normalize

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/recon/internal/config"
	"github.com/cleared-dev/recon/internal/model"
)

// Normalizer converts one locale's statement exports into canonical records.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	locale    config.Locale
	delimiter rune
	columns   *ColumnTable
	amounts   AmountParser
	purchase  *PurchaseDateExtractor
}

// Result is the outcome of normalizing one file.
type Result struct {
	Records  []model.Transaction
	Warnings []Warning
	Rows     int // data rows read, header excluded
	Skipped  int // rows dropped by a ParseError
	Reserved int // pending rows filtered out
	Encoding string
	Metadata FileMetadata
}

// New compiles a locale profile into a Normalizer.
func New(loc config.Locale) (*Normalizer, error) {
	delim, size := utf8.DecodeRuneInString(loc.Delimiter)
	if size == 0 || size != len(loc.Delimiter) {
		return nil, fmt.Errorf("locale %s: delimiter must be a single character, got %q", loc.Name, loc.Delimiter)
	}
	if loc.DateFormat == "" {
		return nil, fmt.Errorf("locale %s: date_format is required", loc.Name)
	}
	if err := checkEncodings(loc.Encodings); err != nil {
		return nil, fmt.Errorf("locale %s: %w", loc.Name, err)
	}
	cols, err := NewColumnTable(loc.Columns)
	if err != nil {
		return nil, fmt.Errorf("locale %s: %w", loc.Name, err)
	}
	return &Normalizer{
		locale:    loc,
		delimiter: delim,
		columns:   cols,
		amounts:   AmountParser{Decimal: loc.DecimalSeparator, Thousands: loc.ThousandsSeparator},
		purchase:  NewPurchaseDateExtractor(loc.PurchaseDateMarker),
	}, nil
}

// Locale returns the profile name.
func (n *Normalizer) Locale() string { return n.locale.Name }

// header is the resolved layout of an input file.
type header struct {
	width int
	index map[Column]int
	extra []int // positions of unmapped columns
	names []string
}

// Normalize decodes and parses a raw statement file. name is the file name
// or path; it feeds FormatError messages and the file metadata.
func (n *Normalizer) Normalize(name string, data []byte) (*Result, error) {
	text, enc, err := decode(name, data, n.locale.Encodings)
	if err != nil {
		return nil, err
	}

	cr := n.newReader(text)

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &FormatError{File: name, Reason: "file is empty"}
	}
	if err != nil {
		return nil, &FormatError{File: name, Reason: fmt.Sprintf("reading header: %v", err)}
	}
	hdr, err := n.resolveHeader(first)
	if err != nil {
		return nil, &FormatError{File: name, Reason: err.Error()}
	}

	res := &Result{Encoding: enc, Metadata: ParseFileName(filepath.Base(name))}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		res.Rows++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.skip(perr.StartLine, perr.Err.Error())
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		line, _ := cr.FieldPos(0)

		if isBlank(rec) {
			res.Rows--
			continue
		}
		if n.isPending(rec, hdr) {
			res.Reserved++
			continue
		}
		if len(rec) != hdr.width {
			res.skip(line, fmt.Sprintf("expected %d fields, got %d", hdr.width, len(rec)))
			continue
		}

		txn, warn, err := n.parseRow(rec, hdr, res.Metadata)
		if err != nil {
			res.skip(line, err.Error())
			continue
		}
		if warn != "" {
			res.Warnings = append(res.Warnings, Warning{Line: line, Reason: warn})
		}
		res.Records = append(res.Records, txn)
	}

	sort.SliceStable(res.Records, func(i, j int) bool {
		return res.Records[i].BookingDate.Before(res.Records[j].BookingDate)
	})
	return res, nil
}

func (n *Normalizer) newReader(text string) *csv.Reader {
	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = n.delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

func (r *Result) skip(line int, reason string) {
	r.Skipped++
	r.Warnings = append(r.Warnings, Warning{
		Line:    line,
		Reason:  reason,
		Skipped: true,
		Err:     &ParseError{Line: line, Reason: reason},
	})
}

func (n *Normalizer) resolveHeader(names []string) (*header, error) {
	h := &header{width: len(names), index: make(map[Column]int), names: names}
	for i, raw := range names {
		c, ok := n.columns.Lookup(raw)
		if !ok {
			h.extra = append(h.extra, i)
			continue
		}
		if _, dup := h.index[c]; dup {
			return nil, fmt.Errorf("column %s mapped twice (header %q)", c, raw)
		}
		h.index[c] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := h.index[c]; !ok {
			missing = append(missing, string(c))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return h, nil
}

func (h *header) get(rec []string, c Column) string {
	i, ok := h.index[c]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// isPending reports whether the row is a reserved, unsettled entry. The
// marker is usually in the reconciled column; some exports put it in place
// of the booking date instead.
func (n *Normalizer) isPending(rec []string, h *header) bool {
	marker := n.locale.PendingMarker
	if marker == "" {
		return false
	}
	return strings.EqualFold(h.get(rec, ColReconciled), marker) ||
		strings.EqualFold(h.get(rec, ColBookingDate), marker)
}

func (n *Normalizer) parseRow(rec []string, h *header, meta FileMetadata) (model.Transaction, string, error) {
	booking, err := parseDate(n.locale.DateFormat, h.get(rec, ColBookingDate))
	if err != nil {
		return model.Transaction{}, "", err
	}
	amount, err := n.amounts.Parse(h.get(rec, ColAmount))
	if err != nil {
		return model.Transaction{}, "", err
	}

	desc := h.get(rec, ColDescription)
	txn := model.Transaction{
		BookingDate:    booking,
		PurchaseDate:   n.purchase.Extract(desc, booking),
		Amount:         amount,
		Description:    desc,
		Sender:         h.get(rec, ColSender),
		Receiver:       h.get(rec, ColReceiver),
		Name:           h.get(rec, ColName),
		Currency:       h.get(rec, ColCurrency),
		AccountNumber:  meta.AccountNumber,
		SourceFileDate: meta.FileDate,
		Status:         model.StatusActive,
	}

	var warn string
	if s := h.get(rec, ColBalance); s != "" {
		bal, err := n.amounts.Parse(s)
		if err != nil {
			warn = fmt.Sprintf("balance ignored: %v", err)
		} else {
			txn.Balance = decimal.NewNullDecimal(bal)
		}
	}

	for _, i := range h.extra {
		txn.Extra = append(txn.Extra, model.Field{Name: h.names[i], Value: rec[i]})
	}
	return txn, warn, nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
