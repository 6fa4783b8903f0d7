package normalize

import (
	"fmt"
	"strings"
)

// ParseError is a row-level failure. The row is skipped and processing continues.
type ParseError struct {
	Line   int // 1-based line in the source file
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// FormatError is a file-level failure such as a missing required column.
type FormatError struct {
	File   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

// EncodingError is returned once every configured encoding failed to decode a file.
type EncodingError struct {
	File  string
	Tried []string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: could not decode with any of %s", e.File, strings.Join(e.Tried, ", "))
}

// Warning records a recoverable problem with one row.
type Warning struct {
	Line    int
	Reason  string
	Skipped bool        // false when the row was kept with a field dropped
	Err     *ParseError // set when Skipped
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Reason)
}
