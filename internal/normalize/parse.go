package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var plainDecimal = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?$`)

// AmountParser converts locale-formatted amounts to exact decimals.
type AmountParser struct {
	Decimal   string
	Thousands string
}

// Parse handles "1000,72", "-1.593,72", "+10,00" and "1 000,00" for a
// decimal-comma locale.
func (p AmountParser) Parse(s string) (decimal.Decimal, error) {
	raw := s
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' || r == '\u202f' || r == '\t' {
			return -1
		}
		return r
	}, s)
	if p.Thousands != "" {
		s = strings.ReplaceAll(s, p.Thousands, "")
	}
	if p.Decimal != "" && p.Decimal != "." {
		s = strings.Replace(s, p.Decimal, ".", 1)
	}
	if !plainDecimal.MatchString(s) {
		return decimal.Decimal{}, fmt.Errorf("parsing amount %q: not a decimal number", raw)
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing amount %q: %w", raw, err)
	}
	return d, nil
}

// parseDate parses s with layout, returning a UTC calendar date.
func parseDate(layout, s string) (time.Time, error) {
	d, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return d, nil
}

// PurchaseDateExtractor finds "<marker> DD.MM" in descriptions.
type PurchaseDateExtractor struct {
	re *regexp.Regexp
}

// NewPurchaseDateExtractor compiles the pattern for marker, e.g. "Den".
// An empty marker disables extraction.
func NewPurchaseDateExtractor(marker string) *PurchaseDateExtractor {
	if marker == "" {
		return &PurchaseDateExtractor{}
	}
	re := regexp.MustCompile(`(?:^|[^\pL\pN])` + regexp.QuoteMeta(marker) + `\s+([0-9]{1,2})\.([0-9]{1,2})(?:[^0-9]|$)`)
	return &PurchaseDateExtractor{re: re}
}

// Extract returns the purchase date named in description, or booking.
// Only the first match counts. A month later than the booking month belongs
// to the previous year; impossible dates fall back to booking.
func (e *PurchaseDateExtractor) Extract(description string, booking time.Time) time.Time {
	if e.re == nil {
		return booking
	}
	m := e.re.FindStringSubmatch(description)
	if m == nil {
		return booking
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 || day < 1 {
		return booking
	}

	year := booking.Year()
	if month > int(booking.Month()) {
		year--
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 31.02 into March; reject that.
	if d.Day() != day || int(d.Month()) != month {
		return booking
	}
	return d
}

var (
	digitRun    = regexp.MustCompile(`[0-9]+`)
	isoFileDate = regexp.MustCompile(`[0-9]{4}[-_][0-9]{2}[-_][0-9]{2}`)
)

// FileMetadata is what a statement file name says about its contents.
type FileMetadata struct {
	AccountNumber string
	FileDate      string // YYYY-MM-DD, empty when absent
}

// ParseFileName extracts the account number and statement date from names
// such as "Konto 1234567890 - 2022-08-31.csv" or "nordea_1234567_20220831.csv".
func ParseFileName(name string) FileMetadata {
	var meta FileMetadata
	dateSpan := []int(nil)

	if loc := isoFileDate.FindStringIndex(name); loc != nil {
		s := strings.NewReplacer("_", "-").Replace(name[loc[0]:loc[1]])
		if _, err := time.Parse("2006-01-02", s); err == nil {
			meta.FileDate = s
			dateSpan = loc
		}
	}

	runs := digitRun.FindAllStringIndex(name, -1)
	if meta.FileDate == "" {
		for _, loc := range runs {
			s := name[loc[0]:loc[1]]
			if len(s) != 8 {
				continue
			}
			if d, err := time.Parse("20060102", s); err == nil {
				meta.FileDate = d.Format("2006-01-02")
				dateSpan = loc
				break
			}
		}
	}

	for _, loc := range runs {
		if loc[1]-loc[0] < 6 {
			continue
		}
		if dateSpan != nil && loc[0] >= dateSpan[0] && loc[1] <= dateSpan[1] {
			continue
		}
		meta.AccountNumber = name[loc[0]:loc[1]]
		break
	}
	return meta
}
