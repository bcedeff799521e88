package table

import (
	"cmp"
	"slices"

	"github.com/arnavshah/pair-overlap-api/pkg/models"
	"github.com/pkg/errors"
)

// DefaultPageSize matches the page size of the report view
const DefaultPageSize = 10

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

var (
	ErrUnsortableField = errors.New("field is not sortable")
	ErrPageOutOfRange  = errors.New("page out of range")
)

// Column describes one column of the report table
type Column struct {
	Field    string
	Header   string
	Sortable bool
	compare  func(a, b models.GroupedResult) int
}

// Columns is the report table layout, in display order
var Columns = []Column{
	{Field: "empId1", Header: "Employee ID #1", compare: func(a, b models.GroupedResult) int {
		return cmp.Compare(a.EmpID1, b.EmpID1)
	}},
	{Field: "empId2", Header: "Employee ID #2", compare: func(a, b models.GroupedResult) int {
		return cmp.Compare(a.EmpID2, b.EmpID2)
	}},
	{Field: "projectId", Header: "Project ID", Sortable: true, compare: func(a, b models.GroupedResult) int {
		return cmp.Compare(a.ProjectID, b.ProjectID)
	}},
	{Field: "workDays", Header: "Days worked", Sortable: true, compare: func(a, b models.GroupedResult) int {
		return cmp.Compare(a.WorkDays, b.WorkDays)
	}},
}

// Headers returns the column titles in display order
func Headers() []string {
	headers := make([]string, 0, len(Columns))
	for _, c := range Columns {
		headers = append(headers, c.Header)
	}
	return headers
}

// Values returns a row's cells in display order
func Values(r models.GroupedResult) []any {
	return []any{r.EmpID1, r.EmpID2, r.ProjectID, r.WorkDays}
}

// Query selects the ordering and page of the table
type Query struct {
	Sort      string
	Direction Direction
	Page      int
	PageSize  int
}

// Page is one slice of the sorted table
type Page struct {
	Items      []models.GroupedResult
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
	Sort       string
	Direction  Direction
}

// Paginate sorts a copy of rows by the query's column and cuts out the
// requested page. Without a sort column the input order is kept. Sorting is
// stable, so equal values keep their report order.
func Paginate(rows []models.GroupedResult, q Query) (Page, error) {
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Direction == "" {
		q.Direction = Asc
	}

	sorted := rows
	if q.Sort != "" {
		col, ok := column(q.Sort)
		if !ok || !col.Sortable {
			return Page{}, errors.Wrapf(ErrUnsortableField, "%q", q.Sort)
		}
		sorted = slices.Clone(rows)
		slices.SortStableFunc(sorted, func(a, b models.GroupedResult) int {
			if q.Direction == Desc {
				return col.compare(b, a)
			}
			return col.compare(a, b)
		})
	}

	total := len(sorted)
	totalPages := (total + q.PageSize - 1) / q.PageSize
	if q.Page < 1 || (totalPages > 0 && q.Page > totalPages) {
		return Page{}, errors.Wrapf(ErrPageOutOfRange, "page %d of %d", q.Page, totalPages)
	}

	start := (q.Page - 1) * q.PageSize
	end := min(start+q.PageSize, total)
	items := make([]models.GroupedResult, 0, end-start)
	if start < end {
		items = append(items, sorted[start:end]...)
	}

	return Page{
		Items:      items,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalItems: total,
		TotalPages: totalPages,
		Sort:       q.Sort,
		Direction:  q.Direction,
	}, nil
}

func column(field string) (Column, bool) {
	for _, c := range Columns {
		if c.Field == field {
			return c, true
		}
	}
	return Column{}, false
}
