package diag

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Kind classifies a diagnostic.
type Kind string

const (
	KindParse    Kind = "parse"    // row skipped
	KindField    Kind = "field"    // row kept, one field dropped
	KindFormat   Kind = "format"   // file rejected
	KindEncoding Kind = "encoding" // file rejected
	KindConfig   Kind = "config"   // batch rejected by the importer
	KindIO       Kind = "io"       // file could not be read or written
)

// Fatal reports whether the kind stops a whole file from being imported.
func (k Kind) Fatal() bool {
	switch k {
	case KindFormat, KindEncoding, KindConfig, KindIO:
		return true
	}
	return false
}

// Entry is one row in diagnostics.csv.
type Entry struct {
	Source  string
	Line    int // 0 when the entry concerns the whole file
	Kind    Kind
	Message string
}

func (e Entry) String() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s", e.Source, e.Line, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Source, e.Kind, e.Message)
}

// Header is the CSV header for diagnostics.csv.
const Header = "source,line,kind,message"

const (
	numFields  = 4
	colSource  = 0
	colLine    = 1
	colKind    = 2
	colMessage = 3
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colSource] = e.Source
	if e.Line > 0 {
		row[colLine] = strconv.Itoa(e.Line)
	}
	row[colKind] = string(e.Kind)
	row[colMessage] = e.Message
	return row
}

// Write writes entries to w, including the header.
func Write(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
