package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadOptions controls how a dataset file is read.
type LoadOptions struct {
	Delimiter rune   // CSV field delimiter, defaults to ','
	Sheet     string // XLSX sheet, defaults to the first sheet
	TrimSpace bool   // Trim leading/trailing whitespace from every cell
}

// Load reads a CSV or XLSX file into a Table based on its extension.
func Load(path string, opts LoadOptions) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadXLSX(path, opts)
	case ".csv", ".txt", ".tsv", "":
		return LoadCSV(path, opts)
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s", path)
	}
}

// LoadCSV reads a delimited text file whose first record is the header.
func LoadCSV(path string, opts LoadOptions) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(filepath.Base(path), file, opts)
}

// ReadCSV reads delimited text from r.
func ReadCSV(name string, r io.Reader, opts LoadOptions) (*Table, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = false

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read headers: empty file")
		}
		return nil, fmt.Errorf("failed to read headers: %w", err)
	}
	headers = trimAll(headers, true)

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		records = append(records, trimAll(record, opts.TrimSpace))
	}

	return NewTable(name, headers, records)
}

// LoadXLSX reads one sheet of a workbook whose first row is the header.
func LoadXLSX(path string, opts LoadOptions) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("failed to read headers: sheet %q is empty", sheet)
	}

	headers := trimAll(rows[0], true)
	records := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, trimAll(row, opts.TrimSpace))
	}

	return NewTable(filepath.Base(path), headers, records)
}

func trimAll(values []string, trim bool) []string {
	if !trim {
		return values
	}
	for i, v := range values {
		values[i] = strings.TrimSpace(v)
	}
	return values
}
