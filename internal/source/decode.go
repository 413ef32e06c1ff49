package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/xuri/excelize/v2"
)

const utf8BOM = "\xEF\xBB\xBF"

// DecodeCSV reads a delimited table whose first record is the header.
// Ragged rows are accepted; an empty input yields an empty table.
func DecodeCSV(r io.Reader) (domain.RawTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return domain.RawTable{}, nil
	}
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	table := domain.RawTable{Header: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.RawTable{}, fmt.Errorf("read csv row %d: %w", len(table.Rows)+2, err)
		}
		if blankRecord(record) {
			continue
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}

// DecodeXLSX reads the first sheet of a workbook; its first row is the header.
func DecodeXLSX(r io.Reader) (domain.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.RawTable{}, fmt.Errorf("xlsx has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var table domain.RawTable
	first := true
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return domain.RawTable{}, fmt.Errorf("failed to read row from sheet %s: %w", sheet, err)
		}
		if first {
			table.Header = record
			first = false
			continue
		}
		if blankRecord(record) {
			continue
		}
		table.Rows = append(table.Rows, record)
	}
	if err := rows.Error(); err != nil {
		return domain.RawTable{}, fmt.Errorf("error iterating rows in sheet %s: %w", sheet, err)
	}

	return table, nil
}

// Decode picks the decoder from the file name or content type.
func Decode(name, contentType string, data []byte) (domain.RawTable, error) {
	if isXLSX(name, contentType) {
		return DecodeXLSX(bytes.NewReader(data))
	}
	return DecodeCSV(bytes.NewReader(data))
}

func isXLSX(name, contentType string) bool {
	name = strings.ToLower(name)
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return strings.HasSuffix(name, ".xlsx") || strings.Contains(contentType, "spreadsheetml")
}

// EncodeCSV writes a raw table back out as CSV.
func EncodeCSV(w io.Writer, table domain.RawTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
