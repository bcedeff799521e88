package handlers

import (
	"net/http"

	"github.com/arnavshah/pair-overlap-api/pkg/ingest"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// ValidateUpload checks an upload's type and header without storing it
func (h *Handler) ValidateUpload(c *gin.Context) {
	name, data, err := h.readUpload(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	tbl, err := ingest.Parse(data, name)
	if err != nil {
		if errors.Is(err, ingest.ErrInvalidHeader) || errors.Is(err, ingest.ErrUnsupportedType) || errors.Is(err, ingest.ErrEmptyFile) {
			c.JSON(http.StatusOK, gin.H{
				"valid": false,
				"error": err.Error(),
			})
			return
		}
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"format": tbl.Format,
			"header": tbl.Header,
			"rows":   len(tbl.Rows),
		},
	})
}
