package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/recon/internal/model"
	"github.com/cleared-dev/recon/internal/reconcile"
)

// Header is the CSV header for normalized per-file output.
const Header = "booking_date,purchase_date,amount,description,sender,receiver,name,balance,currency,account_number,source_file_date"

// CombinedHeader adds the source label to Header.
const CombinedHeader = Header + ",source_label"

// DuplicateHeader adds the group size to CombinedHeader.
const DuplicateHeader = CombinedHeader + ",duplicate_count"

const (
	numFields        = 11
	colBookingDate   = 0
	colPurchaseDate  = 1
	colAmount        = 2
	colDescription   = 3
	colSender        = 4
	colReceiver      = 5
	colName          = 6
	colBalance       = 7
	colCurrency      = 8
	colAccountNumber = 9
	colFileDate      = 10
)

// FormatAmount renders d with a decimal point and at least two decimals.
func FormatAmount(d decimal.Decimal) string {
	if d.Exponent() < -2 {
		return d.String()
	}
	return d.StringFixed(2)
}

// MarshalRecord converts a Transaction to a normalized CSV row.
func MarshalRecord(t model.Transaction) []string {
	row := make([]string, numFields)
	row[colBookingDate] = t.BookingDate.Format(model.DateFormat)
	row[colPurchaseDate] = t.PurchaseDate.Format(model.DateFormat)
	row[colAmount] = FormatAmount(t.Amount)
	row[colDescription] = t.Description
	row[colSender] = t.Sender
	row[colReceiver] = t.Receiver
	row[colName] = t.Name
	if t.Balance.Valid {
		row[colBalance] = FormatAmount(t.Balance.Decimal)
	}
	row[colCurrency] = t.Currency
	row[colAccountNumber] = t.AccountNumber
	row[colFileDate] = t.SourceFileDate
	return row
}

func writeRows(w io.Writer, header string, rows func(emit func([]string) error) error) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	n := 1
	err := rows(func(row []string) error {
		n++
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", n, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteNormalized writes one source's records without a label column.
func WriteNormalized(w io.Writer, recs []model.Transaction) error {
	return writeRows(w, Header, func(emit func([]string) error) error {
		for _, r := range recs {
			if err := emit(MarshalRecord(r)); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteCombined writes records with their source label.
func WriteCombined(w io.Writer, recs []model.Transaction) error {
	return writeRows(w, CombinedHeader, func(emit func([]string) error) error {
		for _, r := range recs {
			if err := emit(append(MarshalRecord(r), r.SourceLabel)); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteDuplicates flattens potential-duplicate groups in engine order.
func WriteDuplicates(w io.Writer, groups []reconcile.DuplicateGroup) error {
	return writeRows(w, DuplicateHeader, func(emit func([]string) error) error {
		for _, g := range groups {
			if err := emitGroup(emit, g.Records); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteExactDuplicates flattens the exact subgroups of every group.
func WriteExactDuplicates(w io.Writer, groups []reconcile.DuplicateGroup) error {
	return writeRows(w, DuplicateHeader, func(emit func([]string) error) error {
		for _, g := range groups {
			for _, sub := range g.Exact {
				if err := emitGroup(emit, sub); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func emitGroup(emit func([]string) error, recs []model.Transaction) error {
	count := strconv.Itoa(len(recs))
	for _, r := range recs {
		if err := emit(append(MarshalRecord(r), r.SourceLabel, count)); err != nil {
			return err
		}
	}
	return nil
}
