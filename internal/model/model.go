package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Entity status values as stored by the record store.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// Attendance status values.
const (
	AttendancePresent = "Present"
	AttendanceAbsent  = "Absent"
	AttendanceLate    = "Late"
)

// Ref is a relationship field. The record store returns these either as a
// bare id string or as a nested document; both decode to the target id.
type Ref string

// UnmarshalJSON accepts "id", {"id": ...} and null.
func (r *Ref) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" || trimmed == "null" {
		*r = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = Ref(s)
		return nil
	}
	var doc struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	*r = Ref(doc.ID)
	return nil
}

// MarshalJSON always writes the bare id form.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(r))
}

// String returns the referenced id.
func (r Ref) String() string { return string(r) }

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Course is a programme staff manage attendance for. LinkStatus controls
// whether the check-in QR link is live, independent of Status.
type Course struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Duration   int       `json:"duration"` // months
	Status     string    `json:"status"`
	LinkStatus string    `json:"linkStatus"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Student belongs to a course. Semester is nil when not assigned; ABCID is
// the external numeric id, unique across students.
type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Gender    string    `json:"gender"`
	ABCID     int64     `json:"abcId"`
	Status    string    `json:"status"`
	Course    Ref       `json:"course"`
	Semester  *int      `json:"semester"`
	Batch     string    `json:"batch"`
	Year      int       `json:"year"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

// AttendanceRecord marks a student present/absent/late on a day. Student
// and Course are weak references resolved by lookup, never pointers.
type AttendanceRecord struct {
	ID          string       `json:"id"`
	Student     Ref          `json:"student"`
	Course      Ref          `json:"course"`
	Status      string       `json:"status"`
	MarkedBy    string       `json:"markedBy"`
	MarkedAt    time.Time    `json:"markedAt"`
	Coordinates *Coordinates `json:"coordinates"`
}

// Location is a geo-stamp source. The current location is the one with the
// most recent creation time.
type Location struct {
	ID        string    `json:"id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"createdAt"`
}

// Holiday disables calendar days in the dashboard date pickers.
type Holiday struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// CourseByID resolves a course reference against an in-memory list.
func CourseByID(courses []Course, id string) *Course {
	for i := range courses {
		if courses[i].ID == id {
			return &courses[i]
		}
	}
	return nil
}

// CourseByName resolves a course by case-insensitive exact name match.
func CourseByName(courses []Course, name string) *Course {
	for i := range courses {
		if strings.EqualFold(courses[i].Name, name) {
			return &courses[i]
		}
	}
	return nil
}

// StudentByID resolves a student reference against an in-memory list.
func StudentByID(students []Student, id string) *Student {
	for i := range students {
		if students[i].ID == id {
			return &students[i]
		}
	}
	return nil
}
