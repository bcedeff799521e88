package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arnavshah/pair-overlap-api/pkg/export"
	"github.com/arnavshah/pair-overlap-api/pkg/ingest"
	"github.com/arnavshah/pair-overlap-api/pkg/logging"
	"github.com/arnavshah/pair-overlap-api/pkg/metrics"
	"github.com/arnavshah/pair-overlap-api/pkg/models"
	"github.com/arnavshah/pair-overlap-api/pkg/overlap"
	"github.com/arnavshah/pair-overlap-api/pkg/store"
	"github.com/arnavshah/pair-overlap-api/pkg/table"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// multipart framing allowance on top of the file size limit
const multipartOverhead = 1 << 20

var errFileTooLarge = errors.New("file too large")

// fail maps domain errors to HTTP statuses
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrDatasetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errFileTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, ingest.ErrInvalidHeader),
		errors.Is(err, ingest.ErrUnsupportedType),
		errors.Is(err, ingest.ErrEmptyFile),
		errors.Is(err, table.ErrUnsortableField),
		errors.Is(err, table.ErrPageOutOfRange):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		logging.FromContext(c).WithError(err).Error("request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) maxUploadBytes() int64 {
	if h.Config != nil && h.Config.Upload.MaxBytes > 0 {
		return h.Config.Upload.MaxBytes
	}
	return 10 << 20
}

// readUpload reads the multipart "file" field within the size limit
func (h *Handler) readUpload(c *gin.Context) (string, []byte, error) {
	limit := h.maxUploadBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, errors.Wrapf(errFileTooLarge, "limit is %d bytes", limit)
		}
		return "", nil, errors.Wrap(ingest.ErrEmptyFile, "multipart field \"file\" is required")
	}
	if fh.Size > limit {
		return "", nil, errors.Wrapf(errFileTooLarge, "%d bytes, limit is %d", fh.Size, limit)
	}

	f, err := fh.Open()
	if err != nil {
		return "", nil, errors.Wrap(err, "open upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, errors.Wrap(err, "read upload")
	}
	return fh.Filename, data, nil
}

// UploadDataset ingests a CSV or XLSX file and makes it the active dataset
func (h *Handler) UploadDataset(c *gin.Context) {
	name, data, err := h.readUpload(c)
	if err != nil {
		metrics.Uploads.WithLabelValues("unknown", "rejected").Inc()
		h.fail(c, err)
		return
	}

	tbl, err := ingest.Parse(data, name)
	if err != nil {
		metrics.Uploads.WithLabelValues("unknown", "rejected").Inc()
		h.fail(c, err)
		return
	}

	ds := h.session(c).Add(name, string(tbl.Format), data, tbl.Rows)
	metrics.Uploads.WithLabelValues(string(tbl.Format), "accepted").Inc()
	h.RecordUsage(c, len(tbl.Rows), 0)

	logging.FromContext(c).WithFields(logrus.Fields{
		"dataset": ds.ID,
		"rows":    len(ds.Rows),
		"format":  ds.Format,
	}).Info("dataset uploaded")

	c.JSON(http.StatusCreated, models.UploadResponse{
		ID:     ds.ID,
		Name:   ds.Name,
		Rows:   len(ds.Rows),
		Format: ds.Format,
	})
}

// ListDatasets returns the caller's datasets in upload order
func (h *Handler) ListDatasets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"datasets": h.session(c).List()})
}

// GetDataset describes one dataset
func (h *Handler) GetDataset(c *gin.Context) {
	sess := h.session(c)
	ds, _, err := sess.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ds.Info(sess.IsActive(ds.ID)))
}

// DeleteDataset removes a dataset and its cached report
func (h *Handler) DeleteDataset(c *gin.Context) {
	if err := h.session(c).Remove(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dataset removed"})
}

// ActivateDataset makes a dataset the one served by GET /api/report
func (h *Handler) ActivateDataset(c *gin.Context) {
	if err := h.session(c).SetActive(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dataset activated", "id": c.Param("id")})
}

// DatasetReport returns one sorted page of a dataset's report
func (h *Handler) DatasetReport(c *gin.Context) {
	sess := h.session(c)
	ds, gen, err := sess.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.writePage(c, ds, h.datasetReport(c, sess, ds, gen))
}

// ActiveReport returns the report page of the active dataset
func (h *Handler) ActiveReport(c *gin.Context) {
	sess := h.session(c)
	ds, gen := sess.Active()
	if ds == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active dataset"})
		return
	}
	h.writePage(c, ds, h.datasetReport(c, sess, ds, gen))
}

// ExportReport downloads the full report as CSV or XLSX
func (h *Handler) ExportReport(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown export format %q", format)})
		return
	}

	sess := h.session(c)
	ds, gen, err := sess.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	report := h.datasetReport(c, sess, ds, gen)

	var buf bytes.Buffer
	if err := export.Write(&buf, format, report.Rows); err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "report-"+ds.ID+"."+format))
	c.Data(http.StatusOK, export.ContentType(format), buf.Bytes())
}

// DatasetSource returns the original upload
func (h *Handler) DatasetSource(c *gin.Context) {
	ds, _, err := h.session(c).Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	data, err := ds.Source()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ds.Name))
	c.Data(http.StatusOK, export.ContentType(ds.Format), data)
}

// datasetReport returns the cached report or computes and caches it.
// A report computed while the session changed is served but not cached.
func (h *Handler) datasetReport(c *gin.Context, sess *store.Session, ds *store.Dataset, gen uint64) *overlap.Report {
	now := h.now()
	if report, ok := sess.Report(ds.ID, now); ok {
		return report
	}

	clock := func() time.Time { return now }
	report := overlap.NewBuilder(clock, logging.FromContext(c)).Build(ds.Rows)
	observeReport(report, "dataset")
	h.RecordUsage(c, len(ds.Rows), len(report.Rows))

	if !sess.PutReport(gen, ds.ID, now, report) {
		logging.FromContext(c).WithField("dataset", ds.ID).Debug("session changed, report not cached")
	}
	return report
}

func (h *Handler) pageLimits() (int, int) {
	if h.Config == nil {
		return table.DefaultPageSize, 100
	}
	return h.Config.Report.PageSize, h.Config.Report.MaxPageSize
}

func (h *Handler) writePage(c *gin.Context, ds *store.Dataset, report *overlap.Report) {
	var q models.ReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	def, maxSize := h.pageLimits()
	if q.PageSize == 0 {
		q.PageSize = def
	}
	q.PageSize = min(q.PageSize, maxSize)

	page, err := table.Paginate(report.Rows, table.Query{
		Sort:      q.Sort,
		Direction: table.Direction(q.Dir),
		Page:      q.Page,
		PageSize:  q.PageSize,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ReportPage{
		DatasetID:  ds.ID,
		Items:      page.Items,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
		Sort:       page.Sort,
		Direction:  string(page.Direction),
		Skipped:    len(report.Skipped),
	})
}

func observeReport(report *overlap.Report, source string) {
	metrics.ReportsBuilt.WithLabelValues(source).Inc()
	metrics.PairsProduced.Observe(float64(len(report.Rows)))
	for _, s := range report.Skipped {
		metrics.RowsSkipped.WithLabelValues(overlap.Reason(s.Err)).Inc()
	}
}
