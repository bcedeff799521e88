package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/arnavshah/pair-overlap-api/pkg/export"
	"github.com/arnavshah/pair-overlap-api/pkg/ingest"
	"github.com/arnavshah/pair-overlap-api/pkg/overlap"
	"github.com/arnavshah/pair-overlap-api/pkg/table"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newReportCmd(logger func() *logrus.Logger) *cobra.Command {
	var (
		nowFlag  string
		format   string
		output   string
		sortBy   string
		dir      string
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "report FILE",
		Short: "Print the pair overlap report of a CSV or XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			if nowFlag != "" {
				t, ok := overlap.ParseDate(nowFlag)
				if !ok {
					return errors.Errorf("invalid --now %q", nowFlag)
				}
				now = t
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "read input")
			}
			tbl, err := ingest.Parse(data, filepath.Base(args[0]))
			if err != nil {
				return err
			}

			report := overlap.NewBuilder(func() time.Time { return now }, logger()).Build(tbl.Rows)

			rows := report.Rows
			if sortBy != "" || page > 0 {
				size := pageSize
				if page == 0 {
					size = max(len(rows), 1)
				}
				p, err := table.Paginate(rows, table.Query{
					Sort:      sortBy,
					Direction: table.Direction(dir),
					Page:      page,
					PageSize:  size,
				})
				if err != nil {
					return err
				}
				rows = p.Items
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return errors.Wrap(err, "create output")
				}
				defer f.Close()
				w = f
			}

			switch format {
			case "table":
				if err := writeTable(w, rows); err != nil {
					return err
				}
				if len(report.Skipped) > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "%d rows skipped\n", len(report.Skipped))
				}
				return nil
			case "json":
				resp := report.Response()
				resp.Rows = rows
				return writeJSON(w, resp)
			case "csv", "xlsx":
				return export.Write(w, format, rows)
			default:
				return errors.Errorf("unknown --format %q", format)
			}
		},
	}

	cmd.Flags().StringVar(&nowFlag, "now", "", "Date used for assignments without an end date (default today)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json, csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort column: projectId or workDays")
	cmd.Flags().StringVar(&dir, "dir", "asc", "Sort direction: asc or desc")
	cmd.Flags().IntVar(&page, "page", 0, "Page to print, 0 prints every row")
	cmd.Flags().IntVar(&pageSize, "page-size", table.DefaultPageSize, "Rows per page")
	return cmd
}
