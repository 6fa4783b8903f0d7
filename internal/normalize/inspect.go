package normalize

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// HeaderColumn is one source header and the field it resolves to.
type HeaderColumn struct {
	Header string
	Column Column // empty when unmapped
}

// Sheet is the header row of one CSV file or workbook sheet.
type Sheet struct {
	Name    string
	Columns []HeaderColumn
}

// Inspect returns the header row of a statement file without parsing its
// records. Workbooks (.xlsx, .xlsm) yield one Sheet per worksheet; anything
// else is read as delimited text with the locale's encodings.
func (n *Normalizer) Inspect(name string, data []byte) ([]Sheet, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return n.inspectWorkbook(name, data)
	}

	text, _, err := decode(name, data, n.locale.Encodings)
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
	return []Sheet{{Name: "CSV", Columns: n.mapHeaders(first)}}, nil
}

func (n *Normalizer) inspectWorkbook(name string, data []byte) ([]Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &FormatError{File: name, Reason: fmt.Sprintf("opening workbook: %v", err)}
	}
	defer f.Close()

	var sheets []Sheet
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, &FormatError{File: name, Reason: fmt.Sprintf("reading sheet %s: %v", sheetName, err)}
		}
		s := Sheet{Name: sheetName}
		if len(rows) > 0 {
			s.Columns = n.mapHeaders(rows[0])
		}
		sheets = append(sheets, s)
	}
	return sheets, nil
}

func (n *Normalizer) mapHeaders(row []string) []HeaderColumn {
	out := make([]HeaderColumn, len(row))
	for i, h := range row {
		h = strings.TrimSpace(h)
		out[i] = HeaderColumn{Header: h}
		if col, ok := n.columns.Lookup(h); ok {
			out[i].Column = col
		}
	}
	return out
}
