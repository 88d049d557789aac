package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sobanshoaib/schedular-app-challenge/auth"
	"github.com/sobanshoaib/schedular-app-challenge/calendar"
	"github.com/sobanshoaib/schedular-app-challenge/db"
	"github.com/sobanshoaib/schedular-app-challenge/models"
	"github.com/sobanshoaib/schedular-app-challenge/realtime"
	"github.com/sobanshoaib/schedular-app-challenge/services"
)

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	Store       *db.RedisService
	Booking     *services.BookingService
	Assignment  *services.AssignmentService
	Auth        *auth.Service
	Hub         *realtime.Hub
	Instructors []models.Instructor
	Students    []models.Student
	Logger      *zap.Logger
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(store *db.RedisService, booking *services.BookingService, assignment *services.AssignmentService,
	authService *auth.Service, hub *realtime.Hub, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		Store:       store,
		Booking:     booking,
		Assignment:  assignment,
		Auth:        authService,
		Hub:         hub,
		Instructors: models.Instructors,
		Students:    models.Students,
		Logger:      logger,
	}
}

// sessionView is a session as the API returns it.
type sessionView struct {
	models.Session
	InstructorName string          `json:"instructorName"`
	SlotsLeft      int             `json:"slotsLeft"`
	TotalCost      decimal.Decimal `json:"totalCost"`
	Enrolled       bool            `json:"enrolled"`
}

// view hides other students' enrollments from parents.
func (h *APIHandler) view(actor models.Actor, s models.Session) sessionView {
	v := sessionView{
		Session:        s.Clone(),
		InstructorName: calendar.InstructorName(h.Instructors, s.InstructorID),
		SlotsLeft:      s.SlotsLeft(),
	}
	if cost, err := s.TotalCost(); err == nil {
		v.TotalCost = cost
	}
	if actor.Role != models.RoleAdmin {
		v.Enrolled = actor.StudentID != "" && s.HasStudent(actor.StudentID)
		v.EnrolledStudents = []string{}
		if v.Enrolled {
			v.EnrolledStudents = []string{actor.StudentID}
		}
	}
	return v
}

func (h *APIHandler) views(actor models.Actor, sessions []models.Session) []sessionView {
	out := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, h.view(actor, s))
	}
	return out
}

// monthQuery reads ?year=&month= (month is 1-12). ok is false when neither
// is given.
func monthQuery(c *gin.Context) (year int, month time.Month, ok bool, err error) {
	y, m := c.Query("year"), c.Query("month")
	if y == "" && m == "" {
		return 0, 0, false, nil
	}
	if year, err = strconv.Atoi(y); err != nil || year < 1 {
		return 0, 0, false, errors.New("year must be a positive number")
	}
	mi, err := strconv.Atoi(m)
	if err != nil || mi < 1 || mi > 12 {
		return 0, 0, false, errors.New("month must be between 1 and 12")
	}
	return year, time.Month(mi), true, nil
}

// monthOrNow falls back to the current month of the booking clock.
func (h *APIHandler) monthOrNow(c *gin.Context) (int, time.Month, error) {
	year, month, ok, err := monthQuery(c)
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		now := h.Booking.Now()
		return now.Year(), now.Month(), nil
	}
	return year, month, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSessionFull),
		errors.Is(err, services.ErrAlreadyEnrolled),
		errors.Is(err, services.ErrNotEnrolled),
		errors.Is(err, services.ErrInstructorBooked),
		errors.Is(err, db.ErrTooManyRetries):
		return http.StatusConflict
	case errors.Is(err, services.ErrCancelCutoff):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrUnknownInstructor),
		errors.Is(err, models.ErrInvalidSession),
		errors.Is(err, db.ErrInvalidWorkbook),
		errors.Is(err, db.ErrEmptyWorkbook):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps domain errors to statuses. Unexpected errors are logged
// and answered with fallback instead of the raw error.
func (h *APIHandler) respondError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error(fallback, zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	body := gin.H{"error": err.Error()}
	var conflict *services.ConflictError
	if errors.As(err, &conflict) {
		body["instructorId"] = conflict.InstructorID
		body["sessionId"] = conflict.SessionID
	}
	c.JSON(status, body)
}

func (h *APIHandler) actor(c *gin.Context) models.Actor {
	actor, _ := auth.ActorFrom(c)
	return actor
}

// --- Ping Handler ---
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}

// Health handles GET /api/health
func (h *APIHandler) Health(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		h.Logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "redis unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
