package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arnavshah/pair-overlap-api/pkg/ingest"
	"github.com/arnavshah/pair-overlap-api/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `EmpID,ProjectID,DateFrom,DateTo
1,A,2024-01-01,2024-01-10
2,A,2024-01-05,NULL
3,B,2024-02-01,2024-02-03
4,B,2024-02-02,2024-02-20
nonsense
`

func writeSample(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestReport_Table(t *testing.T) {
	path := writeSample(t, "staff.csv", sample)

	out, errOut, err := run(t, "report", path, "--now", "2024-01-08")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"Employee", "ID", "#1", "Employee", "ID", "#2", "Project", "ID", "Days", "worked"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1", "2", "A", "4"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"3", "4", "B", "2"}, strings.Fields(lines[2]))
	assert.Contains(t, errOut, "1 rows skipped")
}

func TestReport_JSONSortedPage(t *testing.T) {
	path := writeSample(t, "staff.csv", sample)

	out, _, err := run(t, "report", path, "--now", "2024-01-08", "-f", "json", "--sort", "projectId", "--dir", "desc", "--page", "1", "--page-size", "1")
	require.NoError(t, err)

	var resp models.ReportResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "B", resp.Rows[0].ProjectID)
	assert.Equal(t, 4, resp.ValidRows)
	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, 6, resp.Skipped[0].Line)
}

func TestReport_ExportFile(t *testing.T) {
	path := writeSample(t, "staff.csv", sample)
	dest := filepath.Join(t.TempDir(), "report.csv")

	_, _, err := run(t, "report", path, "--now", "2024-01-08", "-f", "csv", "-o", dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "Employee ID #1,Employee ID #2,Project ID,Days worked\n1,2,A,4\n3,4,B,2\n", string(data))
}

func TestReport_Errors(t *testing.T) {
	path := writeSample(t, "staff.csv", sample)

	_, _, err := run(t, "report", path, "--now", "someday")
	assert.ErrorContains(t, err, "invalid --now")

	_, _, err = run(t, "report", path, "-f", "pdf")
	assert.ErrorContains(t, err, "unknown --format")

	_, _, err = run(t, "report", path, "--sort", "empId1")
	assert.Error(t, err)

	_, _, err = run(t, "report", filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorContains(t, err, "read input")

	_, _, err = run(t, "report")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	out, _, err := run(t, "validate", writeSample(t, "staff.csv", sample))
	require.NoError(t, err)
	assert.Equal(t, "ok: csv file with 5 data rows\n", out)

	_, _, err = run(t, "validate", writeSample(t, "people.csv", "Name,Team\nann,core\n"))
	assert.ErrorIs(t, err, ingest.ErrInvalidHeader)
}
