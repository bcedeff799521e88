package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// RawRow is one row handed over by ingestion before any validation.
// Flat is false when the source value was not a flat sequence of scalars.
type RawRow struct {
	Line   int      `json:"line,omitempty"`
	Fields []string `json:"fields"`
	Flat   bool     `json:"-"`
}

// NewRawRow wraps already split fields, which are always flat
func NewRawRow(line int, fields []string) RawRow {
	return RawRow{Line: line, Fields: fields, Flat: true}
}

// UnmarshalJSON accepts an array of scalars. Numbers, booleans and null
// keep their textual form; any other shape yields a row with Flat unset.
func (r *RawRow) UnmarshalJSON(data []byte) error {
	var values []any
	if err := json.Unmarshal(data, &values); err != nil {
		*r = RawRow{}
		return nil
	}

	fields := make([]string, 0, len(values))
	for _, v := range values {
		switch val := v.(type) {
		case string:
			fields = append(fields, val)
		case float64:
			fields = append(fields, strconv.FormatFloat(val, 'f', -1, 64))
		case bool:
			fields = append(fields, strconv.FormatBool(val))
		case nil:
			fields = append(fields, "null")
		default:
			*r = RawRow{}
			return nil
		}
	}

	*r = RawRow{Fields: fields, Flat: true}
	return nil
}

// Assignment is one employee's period on one project
type Assignment struct {
	EmployeeID string `json:"employeeId"`
	ProjectID  string `json:"projectId"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}

// GroupedResult is one report row: a pair of employees who shared a project
type GroupedResult struct {
	ProjectID string `json:"projectId"`
	EmpID1    string `json:"empId1"`
	EmpID2    string `json:"empId2"`
	WorkDays  int    `json:"workDays"`
}

// SkippedRow explains why an input row did not contribute to the report
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// DatasetInfo describes a stored upload without its rows
type DatasetInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Format     string    `json:"format"`
	Rows       int       `json:"rows"`
	SourceSize int       `json:"source_size"`
	UploadedAt time.Time `json:"uploaded_at"`
	Active     bool      `json:"active"`
}

// UploadResponse acknowledges a stored dataset
type UploadResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Rows   int    `json:"rows"`
	Format string `json:"format"`
}

// ReportInput is the body of the stateless report endpoint
type ReportInput struct {
	Rows []RawRow `json:"rows" binding:"required"`
	Now  string   `json:"now,omitempty"`
}

// ReportResponse is the full report with diagnostics
type ReportResponse struct {
	Rows      []GroupedResult `json:"rows"`
	Skipped   []SkippedRow    `json:"skipped"`
	ValidRows int             `json:"valid_rows"`
	Projects  int             `json:"projects"`
}

// ReportPage is one page of a sorted report table
type ReportPage struct {
	DatasetID  string          `json:"dataset_id,omitempty"`
	Items      []GroupedResult `json:"items"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalItems int             `json:"total_items"`
	TotalPages int             `json:"total_pages"`
	Sort       string          `json:"sort,omitempty"`
	Direction  string          `json:"direction,omitempty"`
	Skipped    int             `json:"skipped"`
}

// ReportQuery binds the table query string of report endpoints
type ReportQuery struct {
	Sort     string `form:"sort" binding:"omitempty,oneof=empId1 empId2 projectId workDays"`
	Dir      string `form:"dir" binding:"omitempty,oneof=asc desc"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1"`
}
