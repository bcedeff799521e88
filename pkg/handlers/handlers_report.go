package handlers

import (
	"net/http"
	"time"

	"github.com/arnavshah/pair-overlap-api/pkg/logging"
	"github.com/arnavshah/pair-overlap-api/pkg/models"
	"github.com/arnavshah/pair-overlap-api/pkg/overlap"
	"github.com/gin-gonic/gin"
)

// ReportJSON computes a report from inline rows without storing anything.
// "now" pins the date used for ongoing assignments.
func (h *Handler) ReportJSON(c *gin.Context) {
	var input models.ReportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := h.now
	if input.Now != "" {
		fixed, ok := overlap.ParseDate(input.Now)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid now: " + input.Now})
			return
		}
		now = func() time.Time { return fixed }
	}

	report := overlap.NewBuilder(now, logging.FromContext(c)).Build(input.Rows)
	observeReport(report, "inline")
	h.RecordUsage(c, len(input.Rows), len(report.Rows))

	c.JSON(http.StatusOK, report.Response())
}
