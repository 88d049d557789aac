package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DateLayout  = "2006-01-02" // Session.Date
	ClockLayout = "15:04"      // Session.StartTime / Session.EndTime
)

// ErrInvalidSession is wrapped by every Session.Validate failure.
var ErrInvalidSession = errors.New("invalid session")

// Role is the kind of user behind a request
type Role string

const (
	RoleParent Role = "parent"
	RoleAdmin  Role = "admin"
)

// Instructor represents a teacher that can run a session
type Instructor struct {
	ID        string `json:"id"`        // Unique instructor ID (e.g., i1)
	Name      string `json:"name"`      // Display name
	Specialty string `json:"specialty"` // Subject taught
}

// Student represents a child that can be booked into sessions
type Student struct {
	ID          string `json:"id"`          // Unique student ID (e.g., s1)
	Name        string `json:"name"`        // Child name
	Age         int    `json:"age"`         // Child age in years
	ParentName  string `json:"parentName"`  // Contact parent
	ParentPhone string `json:"parentPhone"` // Contact phone
}

// Session represents one scheduled class
type Session struct {
	ID               string          `json:"id"`               // Unique session ID
	Date             string          `json:"date"`             // Calendar day, YYYY-MM-DD
	SlotsTotal       int             `json:"slotsTotal"`       // Capacity
	SlotsFilled      int             `json:"slotsFilled"`      // Booked slots
	InstructorID     string          `json:"instructorId"`     // Assigned instructor, empty when TBA
	StartTime        string          `json:"startTime"`        // HH:MM
	EndTime          string          `json:"endTime"`          // HH:MM
	CostPerHour      decimal.Decimal `json:"costPerHour"`      // Price of one hour
	EnrolledStudents []string        `json:"enrolledStudents"` // Student IDs registered through the service
}

// Actor is the authenticated caller of an operation
type Actor struct {
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	StudentID string `json:"studentId,omitempty"` // Only set for parents
}

// Start returns the moment the session begins in loc.
func (s Session) Start(loc *time.Location) (time.Time, error) {
	return s.at(s.StartTime, loc)
}

// End returns the moment the session finishes in loc.
func (s Session) End(loc *time.Location) (time.Time, error) {
	return s.at(s.EndTime, loc)
}

func (s Session) at(clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+ClockLayout, s.Date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("session %s has bad date/time %q %q: %w", s.ID, s.Date, clock, err)
	}
	return t, nil
}

// Hours is the length of the session as a decimal number of hours.
func (s Session) Hours() (decimal.Decimal, error) {
	start, err := s.Start(time.UTC)
	if err != nil {
		return decimal.Zero, err
	}
	end, err := s.End(time.UTC)
	if err != nil {
		return decimal.Zero, err
	}
	minutes := decimal.NewFromInt(int64(end.Sub(start) / time.Minute))
	return minutes.Div(decimal.NewFromInt(60)), nil
}

// TotalCost is CostPerHour multiplied by the session length.
func (s Session) TotalCost() (decimal.Decimal, error) {
	hours, err := s.Hours()
	if err != nil {
		return decimal.Zero, err
	}
	return s.CostPerHour.Mul(hours), nil
}

// IsAvailable reports whether at least one slot is free.
func (s Session) IsAvailable() bool {
	return s.SlotsFilled < s.SlotsTotal
}

// SlotsLeft never goes below zero.
func (s Session) SlotsLeft() int {
	if s.SlotsFilled >= s.SlotsTotal {
		return 0
	}
	return s.SlotsTotal - s.SlotsFilled
}

// HasStudent reports whether studentID holds a registration.
func (s Session) HasStudent(studentID string) bool {
	for _, id := range s.EnrolledStudents {
		if id == studentID {
			return true
		}
	}
	return false
}

// Clone returns a copy that does not share the enrolled slice.
func (s Session) Clone() Session {
	c := s
	c.EnrolledStudents = append([]string(nil), s.EnrolledStudents...)
	return c
}

// Validate checks the fields an admin or an import can supply.
func (s Session) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidSession)
	}
	start, err := s.Start(time.UTC)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	end, err := s.End(time.UTC)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !end.After(start) {
		return fmt.Errorf("%w: end time %s is not after start time %s", ErrInvalidSession, s.EndTime, s.StartTime)
	}
	if s.SlotsTotal <= 0 {
		return fmt.Errorf("%w: slotsTotal must be positive", ErrInvalidSession)
	}
	if s.SlotsFilled < 0 || s.SlotsFilled > s.SlotsTotal {
		return fmt.Errorf("%w: slotsFilled %d outside 0..%d", ErrInvalidSession, s.SlotsFilled, s.SlotsTotal)
	}
	if len(s.EnrolledStudents) > s.SlotsFilled {
		return fmt.Errorf("%w: %d enrolled students but only %d filled slots", ErrInvalidSession, len(s.EnrolledStudents), s.SlotsFilled)
	}
	if s.CostPerHour.IsNegative() {
		return fmt.Errorf("%w: costPerHour cannot be negative", ErrInvalidSession)
	}
	return nil
}

// FindInstructor looks an instructor up by ID.
func FindInstructor(instructors []Instructor, id string) (Instructor, bool) {
	for _, i := range instructors {
		if i.ID == id {
			return i, true
		}
	}
	return Instructor{}, false
}

// FindStudent looks a student up by ID.
func FindStudent(students []Student, id string) (Student, bool) {
	for _, s := range students {
		if s.ID == id {
			return s, true
		}
	}
	return Student{}, false
}
