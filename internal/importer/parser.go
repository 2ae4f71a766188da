package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Format is the decoded container type of an upload.
type Format int

const (
	FormatCSV Format = iota + 1
	FormatXLSX
	FormatXLS
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	case FormatXLS:
		return "xls"
	}
	return "unknown"
}

// RawRow maps a literal header to the cell value from one data row.
type RawRow map[string]string

// Table is a parsed upload: trimmed headers in file order and the
// non-empty data rows beneath them. RowNumbers[i] is the 1-based position
// of Rows[i] among the data rows of the file, blank rows included, so the
// first data row is 1 and sits on sheet line 2.
type Table struct {
	Headers    []string
	Rows       []RawRow
	RowNumbers []int
}

// DetectFormat picks the decoder from the file extension, falling back to
// the declared content type when the name has no extension.
func DetectFormat(name, contentType string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	case "":
		mediaType, _, _ := mime.ParseMediaType(contentType)
		switch mediaType {
		case "text/csv", "application/csv":
			return FormatCSV, nil
		case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
			return FormatXLSX, nil
		case "application/vnd.ms-excel":
			return FormatXLS, nil
		}
	}
	return 0, &UnsupportedFileTypeError{Name: name, ContentType: contentType}
}

// Parse decodes data according to format. The first row is the header row;
// fully empty rows are skipped and short rows are padded with "".
func Parse(ctx context.Context, data []byte, format Format) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Reason: "file is empty"}
	}

	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatCSV:
		records, err = readCSV(data)
	case FormatXLSX:
		records, err = readXLSX(data)
	case FormatXLS:
		records, err = readXLS(data)
	default:
		return nil, &ParseError{Reason: fmt.Sprintf("unknown format %d", format)}
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return buildTable(records)
}

func readCSV(data []byte) ([][]string, error) {
	// Strips a UTF-8 BOM and transcodes UTF-16 files that carry one.
	decoded, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		return nil, &ParseError{Reason: "failed to decode file", Err: err}
	}
	if !utf8.Valid(decoded) {
		return nil, &ParseError{Reason: "file is not valid UTF-8 text"}
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	// The reader skips empty lines; put them back after the header so row
	// numbers match the file.
	var records [][]string
	next := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Reason: "malformed CSV", Err: err}
		}
		start, _ := reader.FieldPos(0)
		for ; len(records) > 0 && next < start; next++ {
			records = append(records, nil)
		}
		last := len(rec) - 1
		end, _ := reader.FieldPos(last)
		next = end + strings.Count(rec[last], "\n") + 1
		records = append(records, rec)
	}
	return records, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Reason: "failed to open spreadsheet", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Reason: "spreadsheet has no sheets"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Reason: "failed to read sheet " + sheets[0], Err: err}
	}
	return rows, nil
}

func readXLS(data []byte) (records [][]string, err error) {
	// The BIFF reader panics on some corrupt inputs.
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = &ParseError{Reason: "corrupt spreadsheet", Err: fmt.Errorf("%v", r)}
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, &ParseError{Reason: "failed to open spreadsheet", Err: err}
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, &ParseError{Reason: "spreadsheet has no sheets"}
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		records = append(records, cells)
	}
	return records, nil
}

// xlsRow returns nil for a row index the sheet has no record of;
// WorkSheet.Row dereferences the missing entry.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

func buildTable(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, &ParseError{Reason: "file is empty"}
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	table := &Table{Headers: headers}
	for i, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		row := make(RawRow, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if _, seen := row[h]; seen {
				continue
			}
			val := ""
			if i < len(rec) {
				val = rec[i]
			}
			row[h] = val
		}
		table.Rows = append(table.Rows, row)
		table.RowNumbers = append(table.RowNumbers, i+1)
	}

	if len(table.Rows) == 0 {
		return nil, &ParseError{Reason: "file contains no data rows"}
	}
	return table, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
