package db

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/sobanshoaib/schedular-app-challenge/models"
)

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		axis, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow(sheet, axis, &r); err != nil {
			t.Fatal(err)
		}
	}
	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestParseSessionsFromExcel(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"Date", "Start", "End", "Slots Total", "Cost/Hour", "Instructor ID"},
		{"2026-04-02", "16:00", "19:00", 12, "25", "i6"},
		{"4/9/2026", "2:00 PM", "5:00 PM", 10, "$30.50", ""},
		{"", "", "", "", "", ""},
		{"not a date", "16:00", "19:00", 12, "25", ""},
		{"2026-04-16", "19:00", "16:00", 12, "25", ""},
		{"2026-04-23", "16:00", "19:00", "many", "25", ""},
	})

	sessions, err := ParseSessionsFromExcel(buf, zap.NewNop())
	if err != nil {
		t.Fatalf("ParseSessionsFromExcel: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 valid rows, got %d: %+v", len(sessions), sessions)
	}

	first := sessions[0]
	if first.Date != "2026-04-02" || first.StartTime != "16:00" || first.InstructorID != "i6" || first.SlotsTotal != 12 {
		t.Errorf("first row parsed wrong: %+v", first)
	}
	second := sessions[1]
	if second.Date != "2026-04-09" || second.StartTime != "14:00" || second.EndTime != "17:00" {
		t.Errorf("second row date/time not normalised: %+v", second)
	}
	if second.CostPerHour.String() != "30.5" {
		t.Errorf("expected cost 30.5, got %s", second.CostPerHour)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Errorf("expected distinct generated IDs, got %q and %q", first.ID, second.ID)
	}
}

func TestParseSessionsRejectsGarbage(t *testing.T) {
	_, err := ParseSessionsFromExcel(bytes.NewBufferString("not a workbook"), nil)
	if !errors.Is(err, ErrInvalidWorkbook) {
		t.Errorf("expected ErrInvalidWorkbook, got %v", err)
	}
}

func TestImportSessionsFromExcelGuardsInstructors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	if err := svc.SaveSessions(ctx, models.SeedSessions()); err != nil {
		t.Fatal(err)
	}

	buf := workbook(t, [][]interface{}{
		{"Date", "Start", "End", "Slots Total", "Cost/Hour", "Instructor ID"},
		{"2026-04-02", "16:00", "19:00", 12, "25", "i1"},  // already holds session 1
		{"2026-04-09", "16:00", "19:00", 12, "25", "i6"},  // free
		{"2026-04-16", "16:00", "19:00", 12, "25", "i6"},  // claimed by the row above
		{"2026-04-23", "16:00", "19:00", 12, "25", "i99"}, // unknown
	})

	added, err := svc.ImportSessionsFromExcel(ctx, buf)
	if err != nil {
		t.Fatalf("ImportSessionsFromExcel: %v", err)
	}
	if len(added) != 4 {
		t.Fatalf("expected 4 sessions stored, got %d", len(added))
	}
	want := []string{"", "i6", "", ""}
	for i, s := range added {
		if s.InstructorID != want[i] {
			t.Errorf("row %d: expected instructor %q, got %q", i+2, want[i], s.InstructorID)
		}
	}

	count, _ := svc.SessionCount(ctx)
	if count != 12 {
		t.Errorf("expected 12 sessions after import, got %d", count)
	}
	err = svc.Update(ctx, func(tx *Txn) error {
		if h, _ := tx.Holder("i6"); h != added[1].ID {
			t.Errorf("i6 should hold %s, got %q", added[1].ID, h)
		}
		if h, _ := tx.Holder("i1"); h != "1" {
			t.Errorf("i1 should still hold 1, got %q", h)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestExportThenImportKeepsScheduleRows(t *testing.T) {
	seed := models.SeedSessions()[:4]
	seed[1].EnrolledStudents = []string{"s1", "s2"}
	seed[1].SlotsFilled = 10

	buf := &bytes.Buffer{}
	if err := ExportMonthWorkbook(buf, seed, models.Instructors, models.Students); err != nil {
		t.Fatalf("ExportMonthWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	roster, err := f.GetRows(rosterSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(roster) != 3 {
		t.Fatalf("expected header plus 2 roster rows, got %d", len(roster))
	}
	if roster[1][4] != "Emma Johnson" {
		t.Errorf("expected roster to name s1, got %v", roster[1])
	}
	schedule, _ := f.GetRows(scheduleSheet)
	if schedule[1][6] != "Mike James" || schedule[1][8] != "75.00" {
		t.Errorf("schedule row missing instructor or cost: %v", schedule[1])
	}
	f.Close()

	parsed, err := ParseSessionsFromExcel(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if len(parsed) != len(seed) {
		t.Fatalf("expected %d rows back, got %d", len(seed), len(parsed))
	}
	for i := range seed {
		p, s := parsed[i], seed[i]
		if p.Date != s.Date || p.StartTime != s.StartTime || p.EndTime != s.EndTime ||
			p.SlotsTotal != s.SlotsTotal || p.InstructorID != s.InstructorID || !p.CostPerHour.Equal(s.CostPerHour) {
			t.Errorf("row %d changed: exported %+v, imported %+v", i, s, p)
		}
	}
}
