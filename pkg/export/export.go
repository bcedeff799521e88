package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/arnavshah/pair-overlap-api/pkg/models"
	"github.com/arnavshah/pair-overlap-api/pkg/table"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Report"

// ContentType returns the MIME type of an export format
func ContentType(format string) string {
	if format == "xlsx" {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Write renders rows in the given format ("csv" or "xlsx")
func Write(w io.Writer, format string, rows []models.GroupedResult) error {
	switch format {
	case "", "csv":
		return CSV(w, rows)
	case "xlsx":
		return XLSX(w, rows)
	default:
		return errors.Errorf("unknown export format %q", format)
	}
}

// CSV writes the report with a header row
func CSV(w io.Writer, rows []models.GroupedResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Headers()); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, r := range rows {
		if err := writer.Write([]string{r.EmpID1, r.EmpID2, r.ProjectID, strconv.Itoa(r.WorkDays)}); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "flush csv")
}

// XLSX writes the report as a single sheet workbook
func XLSX(w io.Writer, rows []models.GroupedResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return errors.Wrap(err, "name sheet")
	}

	headers := table.Headers()
	header := make([]any, 0, len(headers))
	for _, h := range headers {
		header = append(header, h)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return errors.Wrap(err, "write xlsx header")
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "cell name")
		}
		values := table.Values(r)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return errors.Wrapf(err, "write xlsx row %d", i+2)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "write xlsx")
	}
	return nil
}
