package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Key identifies potential duplicates: booking date, amount, description.
// Amount holds the canonical decimal string, so trailing zeros do not matter.
type Key struct {
	Date        string
	Amount      string
	Description string
}

// String renders the key as "date|amount|description".
func (k Key) String() string {
	return k.Date + "|" + k.Amount + "|" + k.Description
}

// Compare orders keys by date, then numeric amount, then description.
func (k Key) Compare(o Key) int {
	if c := strings.Compare(k.Date, o.Date); c != 0 {
		return c
	}
	if c := amountOf(k.Amount).Cmp(amountOf(o.Amount)); c != 0 {
		return c
	}
	return strings.Compare(k.Description, o.Description)
}

func amountOf(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
