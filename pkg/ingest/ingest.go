// Package ingest turns an uploaded spreadsheet into raw report rows.
//
// Both CSV and XLSX uploads are accepted. The first row must be a header
// naming the EmpID, ProjectID, DateFrom and DateTo columns; it is checked
// and stripped so that only data rows reach the overlap engine. Columns are
// read by position, in that order.
package ingest

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/arnavshah/pair-overlap-api/pkg/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RequiredHeaders must all appear in the first row of an upload
var RequiredHeaders = []string{"EmpID", "ProjectID", "DateFrom", "DateTo"}

// positions of DateFrom and DateTo in a data row
var dateColumns = []int{2, 3}

// 9999-12-31
const maxExcelSerial = 2958465

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrInvalidHeader   = errors.New("invalid header")
	ErrEmptyFile       = errors.New("empty file")
)

// Table is a parsed upload
type Table struct {
	Format Format
	Header []string
	Rows   []models.RawRow
}

// DetectFormat inspects the content and falls back on the file extension
// for plain text, which is how short CSV files are usually classified.
func DetectFormat(data []byte, filename string) (Format, error) {
	mtype := mimetype.Detect(data)
	if mtype.Is(xlsxMIME) {
		return FormatXLSX, nil
	}
	if mtype.Is("text/csv") {
		return FormatCSV, nil
	}
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			ext := strings.ToLower(filepath.Ext(filename))
			if ext == ".csv" || ext == ".txt" || ext == "" {
				return FormatCSV, nil
			}
		}
	}
	return "", errors.Wrapf(ErrUnsupportedType, "%s (%s)", filename, mtype.String())
}

// Parse detects the format, reads every row and validates the header
func Parse(data []byte, filename string) (*Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	format, err := DetectFormat(data, filename)
	if err != nil {
		return nil, err
	}

	var records []record
	switch format {
	case FormatXLSX:
		records, err = readXLSX(bytes.NewReader(data))
	default:
		records, err = readCSV(bytes.NewReader(data))
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	header := records[0].fields
	if err := ValidateHeader(header); err != nil {
		return nil, err
	}

	rows := make([]models.RawRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlank(rec.fields) {
			continue
		}
		rows = append(rows, models.NewRawRow(rec.line, rec.fields))
	}

	return &Table{Format: format, Header: header, Rows: rows}, nil
}

// ValidateHeader checks that every required column name is present
func ValidateHeader(header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}

	var missing []string
	for _, h := range RequiredHeaders {
		if !present[h] {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrInvalidHeader, "missing %s", strings.Join(missing, ", "))
	}
	return nil
}

type record struct {
	line   int
	fields []string
}

func readCSV(r io.Reader) ([]record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var records []record
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv")
		}
		line, _ := reader.FieldPos(0)
		records = append(records, record{line: line, fields: fields})
	}
	if len(records) > 0 && len(records[0].fields) > 0 {
		records[0].fields[0] = strings.TrimPrefix(records[0].fields[0], "\ufeff")
	}
	return records, nil
}

func readXLSX(r io.Reader) ([]record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open xlsx")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	// raw values, so date cells come back as serials rather than display text
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheets[0])
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	records := make([]record, 0, len(rows))
	for i, fields := range rows {
		if i > 0 {
			for _, col := range dateColumns {
				if col < len(fields) {
					fields[col] = serialToDate(fields[col], date1904)
				}
			}
		}
		records = append(records, record{line: i + 1, fields: fields})
	}
	return records, nil
}

// serialToDate renders an Excel date serial as an ISO date, keeping the
// time of day when there is one. Anything else is returned unchanged.
func serialToDate(value string, date1904 bool) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || serial <= 0 || serial > maxExcelSerial {
		return value
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return value
	}
	t = t.Round(time.Second)
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02T15:04:05")
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
