package table

import (
	"fmt"
	"testing"

	"github.com/arnavshah/pair-overlap-api/pkg/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func report(n int) []models.GroupedResult {
	rows := make([]models.GroupedResult, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, models.GroupedResult{
			ProjectID: fmt.Sprintf("P%d", i%3),
			EmpID1:    fmt.Sprintf("A%02d", i),
			EmpID2:    fmt.Sprintf("B%02d", i),
			WorkDays:  100 - i,
		})
	}
	return rows
}

func TestPaginate_DefaultsKeepOrder(t *testing.T) {
	rows := report(23)
	page, err := Paginate(rows, Query{})
	require.NoError(t, err)

	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Equal(t, 23, page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, rows[:10], page.Items)

	last, err := Paginate(rows, Query{Page: 3})
	require.NoError(t, err)
	assert.Equal(t, rows[20:], last.Items)
}

func TestPaginate_SortStable(t *testing.T) {
	rows := report(6)
	page, err := Paginate(rows, Query{Sort: "projectId", Direction: Asc, PageSize: 6})
	require.NoError(t, err)

	var got []string
	for _, r := range page.Items {
		got = append(got, r.ProjectID+"/"+r.EmpID1)
	}
	assert.Equal(t, []string{"P0/A00", "P0/A03", "P1/A01", "P1/A04", "P2/A02", "P2/A05"}, got)

	// input untouched
	assert.Equal(t, "A00", rows[0].EmpID1)
	assert.Equal(t, "A01", rows[1].EmpID1)
}

func TestPaginate_SortDesc(t *testing.T) {
	rows := []models.GroupedResult{{WorkDays: 1}, {WorkDays: 5}, {WorkDays: 3}}
	page, err := Paginate(rows, Query{Sort: "workDays", Direction: Desc})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 3, 1}, []int{page.Items[0].WorkDays, page.Items[1].WorkDays, page.Items[2].WorkDays})
}

func TestPaginate_Errors(t *testing.T) {
	rows := report(5)

	_, err := Paginate(rows, Query{Sort: "empId1"})
	assert.True(t, errors.Is(err, ErrUnsortableField))

	_, err = Paginate(rows, Query{Sort: "salary"})
	assert.True(t, errors.Is(err, ErrUnsortableField))

	_, err = Paginate(rows, Query{Page: 2})
	assert.True(t, errors.Is(err, ErrPageOutOfRange))

	_, err = Paginate(rows, Query{Page: -1})
	assert.True(t, errors.Is(err, ErrPageOutOfRange))
}

func TestPaginate_Empty(t *testing.T) {
	page, err := Paginate(nil, Query{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 0, page.TotalPages)
}

func TestHeadersAndValues(t *testing.T) {
	assert.Equal(t, []string{"Employee ID #1", "Employee ID #2", "Project ID", "Days worked"}, Headers())
	assert.Equal(t, []any{"E1", "E2", "P1", 6}, Values(models.GroupedResult{ProjectID: "P1", EmpID1: "E1", EmpID2: "E2", WorkDays: 6}))
}
