package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sobanshoaib/schedular-app-challenge/calendar"
	"github.com/sobanshoaib/schedular-app-challenge/models"
)

// --- Catalog Handlers ---

// GetInstructors handles GET /api/instructors
func (h *APIHandler) GetInstructors(c *gin.Context) {
	c.JSON(http.StatusOK, h.Instructors)
}

// GetSessions handles GET /api/sessions, optionally filtered by ?year=&month=
func (h *APIHandler) GetSessions(c *gin.Context) {
	year, month, filtered, err := monthQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sessions, err := h.Booking.Sessions(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to retrieve sessions")
		return
	}
	if filtered {
		sessions = calendar.SessionsForMonth(sessions, year, month)
	}
	c.JSON(http.StatusOK, h.views(h.actor(c), sessions))
}

// GetSessionByID handles GET /api/sessions/:id
func (h *APIHandler) GetSessionByID(c *gin.Context) {
	session, err := h.Booking.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to retrieve session details")
		return
	}
	c.JSON(http.StatusOK, h.view(h.actor(c), *session))
}

type cellView struct {
	Day     int                 `json:"day"`
	Date    string              `json:"date"`
	Status  calendar.CellStatus `json:"status"`
	Session *sessionView        `json:"session"`
}

type calendarView struct {
	Year    int        `json:"year"`
	Month   int        `json:"month"`
	Name    string     `json:"name"`
	Leading int        `json:"leading"`
	Days    []cellView `json:"days"`
}

// GetCalendar handles GET /api/calendar?year=&month=. Without a query the
// current month is returned.
func (h *APIHandler) GetCalendar(c *gin.Context) {
	year, month, err := h.monthOrNow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sessions, err := h.Booking.Sessions(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to build calendar")
		return
	}

	actor := h.actor(c)
	grid := calendar.Grid(year, month, calendar.SessionsForMonth(sessions, year, month), actor.StudentID)
	out := calendarView{
		Year:    grid.Year,
		Month:   int(grid.Month),
		Name:    grid.Name,
		Leading: grid.Leading,
		Days:    make([]cellView, 0, len(grid.Days)),
	}
	for _, cell := range grid.Days {
		cv := cellView{Day: cell.Day, Date: cell.Date, Status: cell.Status}
		if cell.Session != nil {
			v := h.view(actor, *cell.Session)
			cv.Session = &v
		}
		out.Days = append(out.Days, cv)
	}
	c.JSON(http.StatusOK, out)
}

// --- Booking Handlers ---

// Register handles POST /api/sessions/:id/register
func (h *APIHandler) Register(c *gin.Context) {
	actor := h.actor(c)
	session, err := h.Booking.Register(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to register for session")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully registered for the session",
		"session": h.view(actor, *session),
	})
}

// Cancel handles POST /api/sessions/:id/cancel
func (h *APIHandler) Cancel(c *gin.Context) {
	actor := h.actor(c)
	session, err := h.Booking.Cancel(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to cancel registration")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Registration cancelled",
		"session": h.view(actor, *session),
	})
}

type enrollmentView struct {
	sessionView
	CanCancel      bool      `json:"canCancel"`
	CancelDeadline time.Time `json:"cancelDeadline"`
}

// GetProfile handles GET /api/profile: the parent's student and the
// sessions they are registered for.
func (h *APIHandler) GetProfile(c *gin.Context) {
	actor := h.actor(c)
	student, ok := models.FindStudent(h.Students, actor.StudentID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}

	enrolled, err := h.Booking.Enrollments(c.Request.Context(), actor.StudentID)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve profile")
		return
	}
	sessions := make([]enrollmentView, 0, len(enrolled))
	for _, s := range enrolled {
		ev := enrollmentView{sessionView: h.view(actor, s)}
		ev.CanCancel, _ = h.Booking.CanCancelSession(s)
		ev.CancelDeadline, _ = h.Booking.CancelDeadline(s)
		sessions = append(sessions, ev)
	}
	c.JSON(http.StatusOK, gin.H{
		"user":     actor,
		"student":  student,
		"sessions": sessions,
	})
}

// ServeWS handles GET /api/ws
func (h *APIHandler) ServeWS(c *gin.Context) {
	h.Hub.ServeWS(c.Writer, c.Request, h.actor(c))
}
