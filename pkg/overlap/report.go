package overlap

import (
	"sort"
	"strings"
	"time"

	"github.com/arnavshah/pair-overlap-api/pkg/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const minFields = 4

// HeaderToken is the employee column name that marks a leaked header row
const HeaderToken = "EmpID"

var (
	ErrMalformedRow     = errors.New("malformed row")
	ErrHeaderRow        = errors.New("header row")
	ErrUnparseableStart = errors.New("unparseable start date")
)

// SkippedRow is an input row left out of the report and the reason why
type SkippedRow struct {
	Line int
	Err  error
}

// Report is the outcome of one computation run
type Report struct {
	Rows      []models.GroupedResult
	Skipped   []SkippedRow
	ValidRows int
	Projects  int
}

// Response converts the report into its transport form
func (r *Report) Response() models.ReportResponse {
	skipped := make([]models.SkippedRow, 0, len(r.Skipped))
	for _, s := range r.Skipped {
		skipped = append(skipped, models.SkippedRow{Line: s.Line, Reason: s.Err.Error()})
	}
	rows := r.Rows
	if rows == nil {
		rows = []models.GroupedResult{}
	}
	return models.ReportResponse{
		Rows:      rows,
		Skipped:   skipped,
		ValidRows: r.ValidRows,
		Projects:  r.Projects,
	}
}

// Builder turns raw rows into a sorted pair report. The zero value is ready
// to use and reads the wall clock for ongoing assignments.
type Builder struct {
	Now    func() time.Time
	Logger logrus.FieldLogger
}

// NewBuilder creates a builder with a fixed clock and logger
func NewBuilder(now func() time.Time, logger logrus.FieldLogger) *Builder {
	return &Builder{Now: now, Logger: logger}
}

type projectGroups struct {
	order  []string
	byProj map[string][]models.Assignment
}

// Build groups rows by project, sums pair overlaps and sorts by days worked
// together, longest first. Bad rows are skipped, never fatal.
func (b *Builder) Build(rows []models.RawRow) *Report {
	now := time.Now()
	if b.Now != nil {
		now = b.Now()
	}

	report := &Report{}
	groups := projectGroups{byProj: make(map[string][]models.Assignment)}

	for i, row := range rows {
		line := row.Line
		if line == 0 {
			line = i + 1
		}

		asgn, err := Normalize(row)
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedRow{Line: line, Err: err})
			b.logSkipped(line, err)
			continue
		}

		if _, ok := groups.byProj[asgn.ProjectID]; !ok {
			groups.order = append(groups.order, asgn.ProjectID)
		}
		groups.byProj[asgn.ProjectID] = append(groups.byProj[asgn.ProjectID], asgn)
		report.ValidRows++
	}

	report.Projects = len(groups.order)
	for _, projectID := range groups.order {
		for _, pair := range ProjectPairs(groups.byProj[projectID], now) {
			report.Rows = append(report.Rows, models.GroupedResult{
				ProjectID: projectID,
				EmpID1:    pair.EmpID1,
				EmpID2:    pair.EmpID2,
				WorkDays:  pair.WorkDays,
			})
		}
	}

	sort.SliceStable(report.Rows, func(i, j int) bool {
		return report.Rows[i].WorkDays > report.Rows[j].WorkDays
	})

	return report
}

// Normalize validates a raw row and trims it into an Assignment
func Normalize(row models.RawRow) (models.Assignment, error) {
	if !row.Flat {
		return models.Assignment{}, errors.Wrap(ErrMalformedRow, "not a flat list of fields")
	}
	if len(row.Fields) < minFields {
		return models.Assignment{}, errors.Wrapf(ErrMalformedRow, "%d fields, need %d", len(row.Fields), minFields)
	}

	asgn := models.Assignment{
		EmployeeID: strings.TrimSpace(row.Fields[0]),
		ProjectID:  strings.TrimSpace(row.Fields[1]),
		StartDate:  strings.TrimSpace(row.Fields[2]),
		EndDate:    strings.TrimSpace(row.Fields[3]),
	}

	if asgn.EmployeeID == HeaderToken {
		return models.Assignment{}, ErrHeaderRow
	}
	if _, ok := ParseDate(asgn.StartDate); !ok {
		return models.Assignment{}, errors.Wrapf(ErrUnparseableStart, "%q", asgn.StartDate)
	}
	return asgn, nil
}

func (b *Builder) logSkipped(line int, err error) {
	if b.Logger == nil {
		return
	}
	b.Logger.WithFields(logrus.Fields{
		"line":   line,
		"reason": err.Error(),
	}).Warn("skipping row")
}

// Reason classifies a skip error for metrics labels
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrHeaderRow):
		return "header"
	case errors.Is(err, ErrUnparseableStart):
		return "start_date"
	default:
		return "malformed"
	}
}
