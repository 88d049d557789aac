package db

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/sobanshoaib/schedular-app-challenge/models"
)

const (
	scheduleSheet = "Schedule"
	rosterSheet   = "Roster"
)

// Column order shared by import and the Schedule sheet of the export, so an
// exported month can be edited and imported again.
var scheduleHeader = []interface{}{
	"Date", "Start", "End", "Slots Total", "Cost/Hour", "Instructor ID",
	"Instructor", "Slots Filled", "Session Cost",
}

var rosterHeader = []interface{}{
	"Session ID", "Date", "Start", "Student ID", "Student", "Age", "Parent", "Phone",
}

var importDateLayouts = []string{models.DateLayout, "1/2/2006", "01-02-06", "1/2/06"}
var importClockLayouts = []string{models.ClockLayout, "3:04 PM", "15:04:05"}

// --- Excel Import ---

// ParseSessionsFromExcel reads session rows from the first sheet. Row 1 is
// the header. Rows that cannot be parsed are skipped and reported.
func ParseSessionsFromExcel(file io.Reader, logger *zap.Logger) ([]models.Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close excel file", zap.Error(err))
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrEmptyWorkbook
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}

	sessions := []models.Session{}
	for i, row := range rows {
		if i == 0 {
			continue // Skip header row
		}
		if isBlankRow(row) {
			continue
		}
		session, err := parseSessionRow(row)
		if err != nil {
			logger.Warn("skipping session row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func parseSessionRow(row []string) (models.Session, error) {
	date, err := parseWithLayouts(cell(row, 0), importDateLayouts, models.DateLayout)
	if err != nil {
		return models.Session{}, fmt.Errorf("date: %w", err)
	}
	start, err := parseWithLayouts(cell(row, 1), importClockLayouts, models.ClockLayout)
	if err != nil {
		return models.Session{}, fmt.Errorf("start: %w", err)
	}
	end, err := parseWithLayouts(cell(row, 2), importClockLayouts, models.ClockLayout)
	if err != nil {
		return models.Session{}, fmt.Errorf("end: %w", err)
	}
	total, err := strconv.Atoi(cell(row, 3))
	if err != nil {
		return models.Session{}, fmt.Errorf("slots total %q: %w", cell(row, 3), err)
	}
	cost, err := decimal.NewFromString(strings.TrimPrefix(cell(row, 4), "$"))
	if err != nil {
		return models.Session{}, fmt.Errorf("cost per hour %q: %w", cell(row, 4), err)
	}

	session := models.Session{
		ID:               uuid.NewString(),
		Date:             date,
		SlotsTotal:       total,
		InstructorID:     cell(row, 5),
		StartTime:        start,
		EndTime:          end,
		CostPerHour:      cost,
		EnrolledStudents: []string{},
	}
	if err := session.Validate(); err != nil {
		return models.Session{}, err
	}
	return session, nil
}

func parseWithLayouts(value string, layouts []string, out string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("missing value")
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(out), nil
		}
	}
	return "", fmt.Errorf("unrecognised value %q", value)
}

// AddSessions stores new sessions in one guarded transaction. An instructor
// that is unknown or already holds a session is dropped from the new
// session, which is then stored unassigned.
func (s *RedisService) AddSessions(ctx context.Context, sessions []models.Session) ([]models.Session, error) {
	var added []models.Session
	err := s.Update(ctx, func(t *Txn) error {
		added = added[:0]
		claimed := make(map[string]bool)
		for i := range sessions {
			session := sessions[i].Clone()
			if session.InstructorID != "" {
				if _, ok := models.FindInstructor(models.Instructors, session.InstructorID); !ok {
					s.logger.Warn("unknown instructor, storing session unassigned",
						zap.String("session_id", session.ID), zap.String("instructor_id", session.InstructorID))
					session.InstructorID = ""
				} else {
					holder, err := t.Holder(session.InstructorID)
					if err != nil {
						return err
					}
					if holder != "" || claimed[session.InstructorID] {
						s.logger.Warn("instructor already booked, storing session unassigned",
							zap.String("session_id", session.ID), zap.String("instructor_id", session.InstructorID))
						session.InstructorID = ""
					} else {
						claimed[session.InstructorID] = true
						t.SetHolder(session.InstructorID, session.ID)
					}
				}
			}
			t.Put(&session)
			added = append(added, session)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("added sessions", zap.Int("count", len(added)))
	return added, nil
}

// ImportSessionsFromExcel reads an Excel file stream and stores its sessions
func (s *RedisService) ImportSessionsFromExcel(ctx context.Context, file io.Reader) ([]models.Session, error) {
	sessions, err := ParseSessionsFromExcel(file, s.logger)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return []models.Session{}, nil
	}
	return s.AddSessions(ctx, sessions)
}

// --- Excel Export ---

// ExportMonthWorkbook writes the sessions of one month and their enrolled
// students as an xlsx workbook.
func ExportMonthWorkbook(w io.Writer, sessions []models.Session, instructors []models.Instructor, students []models.Student) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), scheduleSheet); err != nil {
		return fmt.Errorf("failed to name schedule sheet: %w", err)
	}
	if _, err := f.NewSheet(rosterSheet); err != nil {
		return fmt.Errorf("failed to create roster sheet: %w", err)
	}

	if err := setRow(f, scheduleSheet, 1, scheduleHeader); err != nil {
		return err
	}
	if err := setRow(f, rosterSheet, 1, rosterHeader); err != nil {
		return err
	}

	rosterRow := 2
	for i, session := range sessions {
		instructorName := ""
		if instructor, ok := models.FindInstructor(instructors, session.InstructorID); ok {
			instructorName = instructor.Name
		}
		cost, err := session.TotalCost()
		if err != nil {
			return err
		}
		row := []interface{}{
			session.Date, session.StartTime, session.EndTime, session.SlotsTotal,
			session.CostPerHour.String(), session.InstructorID, instructorName,
			session.SlotsFilled, cost.StringFixed(2),
		}
		if err := setRow(f, scheduleSheet, i+2, row); err != nil {
			return err
		}

		for _, studentID := range session.EnrolledStudents {
			student, ok := models.FindStudent(students, studentID)
			if !ok {
				student = models.Student{ID: studentID}
			}
			row := []interface{}{
				session.ID, session.Date, session.StartTime, student.ID, student.Name,
				student.Age, student.ParentName, student.ParentPhone,
			}
			if err := setRow(f, rosterSheet, rosterRow, row); err != nil {
				return err
			}
			rosterRow++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	axis, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, axis, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
