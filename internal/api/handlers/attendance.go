package handlers

import (
	"net/http"

	"church-attendance-backend/internal/auth"
	"church-attendance-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// AttendanceHandler handles HTTP requests for the attendance sheet and
// derived views
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(attendanceService *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{
		attendanceService: attendanceService,
	}
}

// GetSheet returns the marking sheet for the selected date
// @Summary Get the attendance sheet
// @Description Get the marking sheet for the currently selected date. On first use the sheet opens on today.
// @Tags attendance
// @Produce json
// @Success 200 {object} service.SheetResponse "Current sheet"
// @Security BearerAuth
// @Router /attendance/sheet [get]
func (h *AttendanceHandler) GetSheet(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	sheet, err := h.attendanceService.Sheet(c.Request.Context(), church)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

// SelectDate moves the sheet to another date
// @Summary Select a sheet date
// @Description Move the sheet to another known date, discarding unsaved toggles
// @Tags attendance
// @Produce json
// @Param dateKey path string true "Date key (YYYY-MM-DD)"
// @Success 200 {object} service.SheetResponse "Sheet for the selected date"
// @Failure 404 {object} ErrorResponse "Unknown date"
// @Security BearerAuth
// @Router /attendance/sheet/date/{dateKey} [put]
func (h *AttendanceHandler) SelectDate(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	sheet, err := h.attendanceService.SelectDate(c.Request.Context(), church, c.Param("dateKey"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

// Toggle flips one member's presence on the sheet
// @Summary Toggle presence
// @Description Flip one member's presence on the sheet. Nothing durable is written until save.
// @Tags attendance
// @Produce json
// @Param memberId path string true "Member ID"
// @Success 200 {object} service.SheetResponse "Updated sheet"
// @Failure 404 {object} ErrorResponse "Member not found"
// @Security BearerAuth
// @Router /attendance/sheet/toggle/{memberId} [post]
func (h *AttendanceHandler) Toggle(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	sheet, err := h.attendanceService.Toggle(c.Request.Context(), church, c.Param("memberId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

// MarkAll marks every member present on the sheet
// @Summary Mark everyone present
// @Tags attendance
// @Produce json
// @Success 200 {object} service.SheetResponse "Updated sheet"
// @Security BearerAuth
// @Router /attendance/sheet/mark-all [post]
func (h *AttendanceHandler) MarkAll(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	sheet, err := h.attendanceService.MarkAll(c.Request.Context(), church)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

// ClearAll marks every member absent on the sheet
// @Summary Mark everyone absent
// @Tags attendance
// @Produce json
// @Success 200 {object} service.SheetResponse "Updated sheet"
// @Security BearerAuth
// @Router /attendance/sheet/clear-all [post]
func (h *AttendanceHandler) ClearAll(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	sheet, err := h.attendanceService.ClearAll(c.Request.Context(), church)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

// Save writes the sheet's presence map for the selected date
// @Summary Save the sheet
// @Description Write the full presence map for the selected date in one operation
// @Tags attendance
// @Produce json
// @Success 200 {object} service.SheetResponse "Saved sheet"
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Security BearerAuth
// @Router /attendance/sheet/save [post]
func (h *AttendanceHandler) Save(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	sheet, err := h.attendanceService.Save(c.Request.Context(), church)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

// History lists saved dates with counts
// @Summary Attendance history
// @Description List every saved date with present/absent counts, newest first
// @Tags attendance
// @Produce json
// @Success 200 {array} service.HistoryEntry "History entries"
// @Security BearerAuth
// @Router /attendance/history [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	history, err := h.attendanceService.History(c.Request.Context(), church)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// DayDetail lists who was present and absent on one date
// @Summary Day detail
// @Tags attendance
// @Produce json
// @Param dateKey path string true "Date key (YYYY-MM-DD)"
// @Success 200 {object} service.DayDetailResponse "Names present and absent"
// @Failure 404 {object} ErrorResponse "Unknown date"
// @Security BearerAuth
// @Router /attendance/history/{dateKey} [get]
func (h *AttendanceHandler) DayDetail(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	detail, err := h.attendanceService.DayDetail(c.Request.Context(), church, c.Param("dateKey"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Dashboard returns summary figures for the church
// @Summary Dashboard figures
// @Description Member count, teams, today's presence and average attendance
// @Tags attendance
// @Produce json
// @Success 200 {object} service.DashboardResponse "Summary figures"
// @Security BearerAuth
// @Router /dashboard [get]
func (h *AttendanceHandler) Dashboard(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	dash, err := h.attendanceService.Dashboard(c.Request.Context(), church)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}
