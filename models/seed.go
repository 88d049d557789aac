package models

import "github.com/shopspring/decimal"

// Instructors is the fixed list of instructors, in display order.
var Instructors = []Instructor{
	{ID: "i1", Name: "Mike James", Specialty: "Mathematics"},
	{ID: "i2", Name: "Sarah Wilson", Specialty: "Science"},
	{ID: "i3", Name: "John Smith", Specialty: "English"},
	{ID: "i4", Name: "Emily Davis", Specialty: "History"},
	{ID: "i5", Name: "Alex Brown", Specialty: "Art"},
	{ID: "i6", Name: "Lisa Martinez", Specialty: "Music"},
	{ID: "i7", Name: "James Taylor", Specialty: "Physical Education"},
}

// Students is the fixed list of students.
var Students = []Student{
	{ID: "s1", Name: "Emma Johnson", Age: 8, ParentName: "Jennifer Johnson", ParentPhone: "(555) 123-4567"},
	{ID: "s2", Name: "Liam Smith", Age: 9, ParentName: "Michael Smith", ParentPhone: "(555) 234-5678"},
	{ID: "s3", Name: "Olivia Brown", Age: 7, ParentName: "Sarah Brown", ParentPhone: "(555) 345-6789"},
	{ID: "s4", Name: "Noah Davis", Age: 10, ParentName: "David Davis", ParentPhone: "(555) 456-7890"},
	{ID: "s5", Name: "Sophia Wilson", Age: 8, ParentName: "Emily Wilson", ParentPhone: "(555) 567-8901"},
}

// SeedSessions returns the sessions written on first start.
// Filled slot counts include bookings taken before the service existed, so
// they are not backed by EnrolledStudents. March starts unassigned because
// an instructor holds at most one session.
func SeedSessions() []Session {
	rate := decimal.NewFromInt(25)
	return []Session{
		// February 2026
		{ID: "1", Date: "2026-02-05", SlotsTotal: 20, SlotsFilled: 13, InstructorID: "i1", StartTime: "16:00", EndTime: "19:00", CostPerHour: rate, EnrolledStudents: []string{}},
		{ID: "2", Date: "2026-02-12", SlotsTotal: 15, SlotsFilled: 8, InstructorID: "i2", StartTime: "14:00", EndTime: "17:00", CostPerHour: rate, EnrolledStudents: []string{}},
		{ID: "3", Date: "2026-02-18", SlotsTotal: 20, SlotsFilled: 20, InstructorID: "i3", StartTime: "10:00", EndTime: "13:00", CostPerHour: rate, EnrolledStudents: []string{}},
		{ID: "4", Date: "2026-02-25", SlotsTotal: 18, SlotsFilled: 5, InstructorID: "i4", StartTime: "15:00", EndTime: "18:00", CostPerHour: rate, EnrolledStudents: []string{}},
		// March 2026
		{ID: "5", Date: "2026-03-05", SlotsTotal: 20, SlotsFilled: 10, StartTime: "16:00", EndTime: "19:00", CostPerHour: rate, EnrolledStudents: []string{}},
		{ID: "6", Date: "2026-03-12", SlotsTotal: 22, SlotsFilled: 18, StartTime: "14:00", EndTime: "17:00", CostPerHour: rate, EnrolledStudents: []string{}},
		{ID: "7", Date: "2026-03-19", SlotsTotal: 15, SlotsFilled: 3, StartTime: "13:00", EndTime: "16:00", CostPerHour: rate, EnrolledStudents: []string{}},
		{ID: "8", Date: "2026-03-26", SlotsTotal: 20, SlotsFilled: 15, StartTime: "15:00", EndTime: "18:00", CostPerHour: rate, EnrolledStudents: []string{}},
	}
}
