package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the settlement state of a statement row.
type Status string

const (
	StatusActive   Status = "active"
	StatusReserved Status = "reserved" // pending, never emitted
)

// DateFormat is the canonical rendering of calendar dates.
const DateFormat = "2006-01-02"

// Field is an opaque column carried over from the source file.
type Field struct {
	Name  string
	Value string
}

// Transaction is a canonical statement row produced by normalization.
type Transaction struct {
	BookingDate    time.Time
	PurchaseDate   time.Time       // equals BookingDate unless the description names a date
	Amount         decimal.Decimal // negative = debit, positive = credit
	Description    string
	Sender         string
	Receiver       string
	Name           string
	Balance        decimal.NullDecimal
	Currency       string
	AccountNumber  string // from the file name
	SourceFileDate string // from the file name, YYYY-MM-DD
	Extra          []Field
	SourceLabel    string
	Status         Status
}

// Key returns the duplicate-grouping identity of t.
func (t Transaction) Key() Key {
	return Key{
		Date:        t.BookingDate.Format(DateFormat),
		Amount:      t.Amount.String(),
		Description: t.Description,
	}
}

// Batch is the ordered set of records from one source.
type Batch struct {
	Label   string
	Records []Transaction
}
