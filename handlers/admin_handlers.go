package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sobanshoaib/schedular-app-challenge/calendar"
	"github.com/sobanshoaib/schedular-app-challenge/db"
	"github.com/sobanshoaib/schedular-app-challenge/models"
	"github.com/sobanshoaib/schedular-app-challenge/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// --- Admin Session Handlers ---

// GetAvailableInstructors handles GET /api/admin/instructors/available
func (h *APIHandler) GetAvailableInstructors(c *gin.Context) {
	sessions, err := h.Booking.Sessions(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to retrieve sessions")
		return
	}
	c.JSON(http.StatusOK, calendar.AvailableInstructors(h.Instructors, sessions))
}

type assignRequest struct {
	InstructorID string `json:"instructorId" binding:"required"`
}

// AssignInstructor handles PUT /api/admin/sessions/:id/instructor
func (h *APIHandler) AssignInstructor(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	actor := h.actor(c)
	session, err := h.Assignment.Assign(c.Request.Context(), actor, req.InstructorID, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to assign instructor")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Instructor assigned",
		"session": h.view(actor, *session),
	})
}

type moveRequest struct {
	InstructorID  string `json:"instructorId" binding:"required"`
	FromSessionID string `json:"fromSessionId" binding:"required"`
}

// MoveInstructor handles POST /api/admin/sessions/:id/instructor/move. The
// instructor leaves fromSessionId and takes session :id.
func (h *APIHandler) MoveInstructor(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	actor := h.actor(c)
	session, err := h.Assignment.Move(c.Request.Context(), actor, req.InstructorID, req.FromSessionID, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to move instructor")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Instructor moved",
		"session": h.view(actor, *session),
	})
}

// RemoveInstructor handles DELETE /api/admin/sessions/:id/instructor
func (h *APIHandler) RemoveInstructor(c *gin.Context) {
	actor := h.actor(c)
	session, err := h.Assignment.Remove(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to remove instructor")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Instructor removed",
		"session": h.view(actor, *session),
	})
}

type createSessionRequest struct {
	Date         string          `json:"date" binding:"required"`
	StartTime    string          `json:"startTime" binding:"required"`
	EndTime      string          `json:"endTime" binding:"required"`
	SlotsTotal   int             `json:"slotsTotal" binding:"required"`
	CostPerHour  decimal.Decimal `json:"costPerHour"`
	InstructorID string          `json:"instructorId"`
}

// CreateSession handles POST /api/admin/sessions
func (h *APIHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	actor := h.actor(c)
	session, err := h.Assignment.CreateSession(c.Request.Context(), actor, models.Session{
		Date:         req.Date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		SlotsTotal:   req.SlotsTotal,
		CostPerHour:  req.CostPerHour,
		InstructorID: req.InstructorID,
	})
	if err != nil {
		h.respondError(c, err, "Failed to create session")
		return
	}
	c.JSON(http.StatusCreated, h.view(actor, *session))
}

// GetConflicts handles GET /api/admin/conflicts
func (h *APIHandler) GetConflicts(c *gin.Context) {
	sessions, err := h.Booking.Sessions(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to retrieve sessions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflicts": calendar.Conflicts(sessions)})
}

// --- Import / Export Handlers ---

// ImportSessions handles POST /api/admin/import/sessions
func (h *APIHandler) ImportSessions(c *gin.Context) {
	file, header, err := c.Request.FormFile("file") // "file" is the name attribute in the form
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	h.Logger.Info("received session import", zap.String("filename", header.Filename), zap.Int64("size", header.Size))

	imported, err := h.Store.ImportSessionsFromExcel(c.Request.Context(), file)
	if err != nil {
		h.respondError(c, err, "Failed to import sessions")
		return
	}
	if h.Hub != nil {
		for _, s := range imported {
			h.Hub.SessionChanged(s, services.ReasonCreated)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Import successful",
		"importedCount": len(imported),
		"sessions":      h.views(h.actor(c), imported),
	})
}

// ExportMonth handles GET /api/admin/export?year=&month=
func (h *APIHandler) ExportMonth(c *gin.Context) {
	year, month, err := h.monthOrNow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sessions, err := h.Booking.Sessions(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to retrieve sessions")
		return
	}

	var buf bytes.Buffer
	if err := db.ExportMonthWorkbook(&buf, calendar.SessionsForMonth(sessions, year, month), h.Instructors, h.Students); err != nil {
		h.respondError(c, err, "Failed to build workbook")
		return
	}
	filename := fmt.Sprintf("sessions-%04d-%02d.xlsx", year, int(month))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
