package handlers

import (
	"net/http"

	"church-attendance-backend/internal/auth"
	"church-attendance-backend/internal/export"
	"church-attendance-backend/internal/projection"

	"github.com/gin-gonic/gin"
)

// ExportHandler serves the attendance workbook download
type ExportHandler struct {
	registry *projection.Registry
}

// NewExportHandler creates a new export handler
func NewExportHandler(registry *projection.Registry) *ExportHandler {
	return &ExportHandler{registry: registry}
}

// teamNamer adapts the team directory to the export package
type teamNamer struct {
	teams *projection.Teams
}

func (t teamNamer) NameOf(id string) (string, bool) {
	team, ok := t.teams.ByID(id)
	if !ok {
		return "", false
	}
	return team.Name, true
}

// Download serves the xlsx workbook for the signed-in church
// @Summary Download attendance workbook
// @Description Build and download the xlsx workbook: one sheet per date, a summary sheet and a member detail sheet
// @Tags export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary "Workbook"
// @Failure 500 {object} ErrorResponse "Workbook build failed"
// @Security BearerAuth
// @Router /export [get]
func (h *ExportHandler) Download(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	set, err := h.registry.ForChurch(church)
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := export.Workbook(set.Roster.All(), h.registry.Ledger(), teamNamer{teams: set.Teams})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build workbook"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(church)+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
