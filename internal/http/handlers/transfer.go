package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Export all data
// @Tags transfer
// @Produce json
// @Success 200 {object} store.ExportDocument
// @Router /api/export [get]
func (h *Handler) Export(c *gin.Context) {
	doc := h.Store.Export()
	filename := fmt.Sprintf("complaints-export-%s.json", doc.ExportDate.Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.JSON(http.StatusOK, doc)
}

// @Summary Import exported data
// @Tags transfer
// @Accept json
// @Produce json
// @Success 200 {object} store.ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/import [post]
func (h *Handler) Import(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Failed to read body", err.Error())
		return
	}

	summary, err := h.Store.Import(c.Request.Context(), raw)
	if err != nil {
		h.storeError(c, err)
		return
	}
	h.Logger.Info().
		Int("organizations_added", summary.OrganizationsAdded).
		Int("organizations_merged", summary.OrganizationsMerged).
		Int("complaints_added", summary.ComplaintsAdded).
		Msg("import complete")
	c.JSON(http.StatusOK, summary)
}
