// Package calendar computes the read-only views of the schedule: month
// filters, the month grid and instructor availability. Nothing here touches
// storage.
package calendar

import (
	"fmt"
	"time"

	"github.com/sobanshoaib/schedular-app-challenge/models"
)

type CellStatus string

const (
	StatusNone     CellStatus = "none"     // no session that day
	StatusOpen     CellStatus = "open"     // session with free slots
	StatusFull     CellStatus = "full"     // session without free slots
	StatusEnrolled CellStatus = "enrolled" // the viewer holds a registration
)

const placeholderName = "TBA"

// Cell is one day of a month grid.
type Cell struct {
	Day     int             `json:"day"`
	Date    string          `json:"date"`
	Session *models.Session `json:"session,omitempty"`
	Status  CellStatus      `json:"status"`
}

// MonthGrid lays a month out Sunday-first. Leading is the number of blank
// cells before day 1.
type MonthGrid struct {
	Year    int        `json:"year"`
	Month   time.Month `json:"month"`
	Name    string     `json:"name"`
	Leading int        `json:"leading"`
	Days    []Cell     `json:"days"`
}

// DaysIn returns the number of days in month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday is the weekday of the 1st, 0 for Sunday.
func FirstWeekday(year int, month time.Month) int {
	return int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
}

func monthPrefix(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d-", year, int(month))
}

// SessionsForMonth keeps the sessions dated in year/month, in input order.
func SessionsForMonth(sessions []models.Session, year int, month time.Month) []models.Session {
	prefix := monthPrefix(year, month)
	out := []models.Session{}
	for _, s := range sessions {
		if len(s.Date) >= len(prefix) && s.Date[:len(prefix)] == prefix {
			out = append(out, s)
		}
	}
	return out
}

// AvailableInstructors returns the instructors no session holds, in the
// order of instructors.
func AvailableInstructors(instructors []models.Instructor, sessions []models.Session) []models.Instructor {
	assigned := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		if s.InstructorID != "" {
			assigned[s.InstructorID] = true
		}
	}
	out := []models.Instructor{}
	for _, i := range instructors {
		if !assigned[i.ID] {
			out = append(out, i)
		}
	}
	return out
}

// InstructorName falls back to "TBA" for unassigned or unknown IDs.
func InstructorName(instructors []models.Instructor, id string) string {
	if id == "" {
		return placeholderName
	}
	if i, ok := models.FindInstructor(instructors, id); ok {
		return i.Name
	}
	return placeholderName
}

// Status classifies a day for the viewer. enrolled is ignored without a session.
func Status(session *models.Session, enrolled bool) CellStatus {
	switch {
	case session == nil:
		return StatusNone
	case enrolled:
		return StatusEnrolled
	case session.IsAvailable():
		return StatusOpen
	default:
		return StatusFull
	}
}

// Grid builds the month view. When two sessions share a date the first one
// wins. studentID may be empty (admin view), in which case no cell is
// marked enrolled.
func Grid(year int, month time.Month, sessions []models.Session, studentID string) MonthGrid {
	byDate := make(map[string]*models.Session)
	for i := range sessions {
		if _, ok := byDate[sessions[i].Date]; !ok {
			byDate[sessions[i].Date] = &sessions[i]
		}
	}

	days := DaysIn(year, month)
	grid := MonthGrid{
		Year:    year,
		Month:   month,
		Name:    fmt.Sprintf("%s %d", month, year),
		Leading: FirstWeekday(year, month),
		Days:    make([]Cell, 0, days),
	}
	prefix := monthPrefix(year, month)
	for day := 1; day <= days; day++ {
		date := fmt.Sprintf("%s%02d", prefix, day)
		session := byDate[date]
		enrolled := session != nil && studentID != "" && session.HasStudent(studentID)
		grid.Days = append(grid.Days, Cell{
			Day:     day,
			Date:    date,
			Session: session,
			Status:  Status(session, enrolled),
		})
	}
	return grid
}

// Conflicts lists instructors held by more than one session. The service
// never produces this state; it shows up only after edits made directly in
// the store.
func Conflicts(sessions []models.Session) map[string][]string {
	held := make(map[string][]string)
	for _, s := range sessions {
		if s.InstructorID != "" {
			held[s.InstructorID] = append(held[s.InstructorID], s.ID)
		}
	}
	out := make(map[string][]string)
	for instructorID, ids := range held {
		if len(ids) > 1 {
			out[instructorID] = ids
		}
	}
	return out
}
