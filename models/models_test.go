package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSessionStartUsesLocation(t *testing.T) {
	s := Session{ID: "1", Date: "2026-02-05", StartTime: "16:00", EndTime: "19:00"}

	start, err := s.Start(time.UTC)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	want := time.Date(2026, time.February, 5, 16, 0, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Errorf("expected %v, got %v", want, start)
	}

	tokyo := time.FixedZone("JST", 9*60*60)
	start, err = s.Start(tokyo)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !start.Equal(want.Add(-9 * time.Hour)) {
		t.Errorf("expected start shifted by zone offset, got %v", start.UTC())
	}
}

func TestSessionTotalCost(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		rate  decimal.Decimal
		want  string
	}{
		{"three hours", "16:00", "19:00", decimal.NewFromInt(25), "75"},
		{"ninety minutes", "10:00", "11:30", decimal.NewFromInt(25), "37.5"},
		{"fractional rate", "09:00", "10:00", decimal.RequireFromString("19.99"), "19.99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{ID: "x", Date: "2026-02-05", StartTime: tt.start, EndTime: tt.end, CostPerHour: tt.rate}
			got, err := s.TotalCost()
			if err != nil {
				t.Fatalf("TotalCost: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSessionValidate(t *testing.T) {
	valid := Session{ID: "x", Date: "2026-02-05", StartTime: "16:00", EndTime: "19:00", SlotsTotal: 10, SlotsFilled: 2, CostPerHour: decimal.NewFromInt(25)}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid session rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Session)
	}{
		{"missing id", func(s *Session) { s.ID = "" }},
		{"bad date", func(s *Session) { s.Date = "2026-13-40" }},
		{"end before start", func(s *Session) { s.EndTime = "15:00" }},
		{"zero capacity", func(s *Session) { s.SlotsTotal = 0; s.SlotsFilled = 0 }},
		{"overfilled", func(s *Session) { s.SlotsFilled = 11 }},
		{"more students than slots", func(s *Session) { s.EnrolledStudents = []string{"s1", "s2", "s3"} }},
		{"negative cost", func(s *Session) { s.CostPerHour = decimal.NewFromInt(-1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid.Clone()
			tt.mutate(&s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidSession) {
				t.Errorf("expected ErrInvalidSession, got %v", err)
			}
		})
	}
}

func TestSeedHonoursSingleAssignment(t *testing.T) {
	held := map[string]string{}
	for _, s := range SeedSessions() {
		if err := s.Validate(); err != nil {
			t.Errorf("seed session %s invalid: %v", s.ID, err)
		}
		if s.InstructorID == "" {
			continue
		}
		if _, ok := FindInstructor(Instructors, s.InstructorID); !ok {
			t.Errorf("seed session %s references unknown instructor %s", s.ID, s.InstructorID)
		}
		if other, dup := held[s.InstructorID]; dup {
			t.Errorf("instructor %s holds sessions %s and %s", s.InstructorID, other, s.ID)
		}
		held[s.InstructorID] = s.ID
	}
}
