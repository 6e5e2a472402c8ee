// Package report turns aggregated entity lists into downloadable exports.
// Pure field selection and default substitution; the column sets are fixed
// per report.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"attendhub/internal/aggregate"
	"attendhub/internal/model"
)

// ErrNoData aborts an export whose filters match nothing; no file is
// produced and the caller surfaces the message as-is.
var ErrNoData = errors.New("No data found for the selected criteria")

// StudentHeader is the fixed student export column set.
var StudentHeader = []string{"Name", "ABC ID", "Gender", "Status", "Course", "Semester", "Batch", "Year", "Address"}

// AttendanceHeader is the fixed attendance export column set.
var AttendanceHeader = []string{"Date", "Time", "Student Name", "ABC ID", "Course", "Semester", "Status", "Marked By"}

// StudentRows selects export columns for each student, substituting "N/A"
// for missing optional fields.
func StudentRows(students []model.Student, courses []model.Course) [][]string {
	rows := make([][]string, 0, len(students))
	for _, s := range students {
		rows = append(rows, []string{
			orNA(s.Name),
			fmt.Sprintf("%d", s.ABCID),
			orNA(s.Gender),
			orNA(s.Status),
			courseName(courses, s.Course),
			aggregate.SemesterLabel(s.Semester),
			orNA(s.Batch),
			yearLabel(s.Year),
			orNA(s.Address),
		})
	}
	return rows
}

// AttendanceRows selects export columns for each record, resolving student
// and course references by lookup.
func AttendanceRows(records []model.AttendanceRecord, students []model.Student, courses []model.Course) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		name := aggregate.SemesterNA
		abcID := aggregate.SemesterNA
		semester := aggregate.SemesterNA
		if s := model.StudentByID(students, rec.Student.String()); s != nil {
			name = orNA(s.Name)
			abcID = fmt.Sprintf("%d", s.ABCID)
			semester = aggregate.SemesterLabel(s.Semester)
		}
		rows = append(rows, []string{
			rec.MarkedAt.Format("2006-01-02"),
			rec.MarkedAt.Format("15:04:05"),
			name,
			abcID,
			courseName(courses, rec.Course),
			semester,
			orNA(rec.Status),
			orNA(rec.MarkedBy),
		})
	}
	return rows
}

// StudentExportName derives the student export filename from its filters,
// never from content.
func StudentExportName(course string, semester *int, ext string) string {
	parts := []string{"students"}
	if course != "" {
		parts = append(parts, sanitize(course))
	}
	if semester != nil {
		parts = append(parts, fmt.Sprintf("sem%d", *semester))
	}
	return strings.Join(parts, "_") + "." + ext
}

// AttendanceExportName derives the attendance export filename from its
// filters.
func AttendanceExportName(course string, semester *int, from, to *time.Time, student, ext string) string {
	parts := []string{"attendance"}
	if course != "" {
		parts = append(parts, sanitize(course))
	}
	if semester != nil {
		parts = append(parts, fmt.Sprintf("sem%d", *semester))
	}
	if from != nil && to != nil {
		parts = append(parts, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	if student != "" {
		parts = append(parts, sanitize(student))
	}
	return strings.Join(parts, "_") + "." + ext
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	return s
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return aggregate.SemesterNA
	}
	return s
}

func yearLabel(year int) string {
	if year == 0 {
		return aggregate.SemesterNA
	}
	return fmt.Sprintf("%d", year)
}

func courseName(courses []model.Course, ref model.Ref) string {
	if c := model.CourseByID(courses, ref.String()); c != nil {
		return c.Name
	}
	return aggregate.SemesterNA
}
