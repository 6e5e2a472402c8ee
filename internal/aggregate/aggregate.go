// Package aggregate derives dashboard view data from raw entity lists.
// Everything here is a pure function over already-fetched slices; no I/O.
package aggregate

import (
	"sort"
	"strconv"
	"time"

	"attendhub/internal/model"
)

// SemesterNA labels items whose semester is unset.
const SemesterNA = "N/A"

// SemesterLabel renders a nullable semester for grouping and display.
func SemesterLabel(semester *int) string {
	if semester == nil {
		return SemesterNA
	}
	return strconv.Itoa(*semester)
}

// GroupStudents maps course name -> semester label -> students, preserving
// input order inside each group. Students whose course cannot be resolved
// group under SemesterNA's course bucket "N/A".
func GroupStudents(students []model.Student, courses []model.Course) map[string]map[string][]model.Student {
	groups := make(map[string]map[string][]model.Student)
	for _, s := range students {
		course := courseName(courses, s.Course)
		sem := SemesterLabel(s.Semester)
		if groups[course] == nil {
			groups[course] = make(map[string][]model.Student)
		}
		groups[course][sem] = append(groups[course][sem], s)
	}
	return groups
}

// GroupAttendance maps course name -> semester label -> records. The
// semester comes from the referenced student, resolved by lookup.
func GroupAttendance(records []model.AttendanceRecord, students []model.Student, courses []model.Course) map[string]map[string][]model.AttendanceRecord {
	groups := make(map[string]map[string][]model.AttendanceRecord)
	for _, rec := range records {
		course := courseName(courses, rec.Course)
		sem := SemesterNA
		if s := model.StudentByID(students, rec.Student.String()); s != nil {
			sem = SemesterLabel(s.Semester)
		}
		if groups[course] == nil {
			groups[course] = make(map[string][]model.AttendanceRecord)
		}
		groups[course][sem] = append(groups[course][sem], rec)
	}
	return groups
}

// SemesterLabels orders a group's semester keys numeric-ascending with
// "N/A" last, the order the dashboard renders them in.
func SemesterLabels[T any](group map[string][]T) []string {
	labels := make([]string, 0, len(group))
	hasNA := false
	for label := range group {
		if label == SemesterNA {
			hasNA = true
			continue
		}
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		a, _ := strconv.Atoi(labels[i])
		b, _ := strconv.Atoi(labels[j])
		return a < b
	})
	if hasNA {
		labels = append(labels, SemesterNA)
	}
	return labels
}

// FilterByDay returns the records whose marked-at falls on the same local
// calendar day as date. Day-of-month/month/year match, not a 24h window.
func FilterByDay(records []model.AttendanceRecord, date time.Time) []model.AttendanceRecord {
	y, m, d := date.Date()
	var out []model.AttendanceRecord
	for _, rec := range records {
		ry, rm, rd := rec.MarkedAt.In(date.Location()).Date()
		if ry == y && rm == m && rd == d {
			out = append(out, rec)
		}
	}
	return out
}

// FilterByRange returns the records whose marked-at day falls inside the
// inclusive [from, to] calendar-day range.
func FilterByRange(records []model.AttendanceRecord, from, to time.Time) []model.AttendanceRecord {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location()).AddDate(0, 0, 1)
	var out []model.AttendanceRecord
	for _, rec := range records {
		at := rec.MarkedAt.In(from.Location())
		if !at.Before(start) && at.Before(end) {
			out = append(out, rec)
		}
	}
	return out
}

// Distribution counts students per value of the selected field.
func Distribution(students []model.Student, field func(model.Student) string) map[string]int {
	counts := make(map[string]int)
	for _, s := range students {
		counts[field(s)]++
	}
	return counts
}

// ByGender selects the gender field.
func ByGender(s model.Student) string { return s.Gender }

// ByStatus selects the status field.
func ByStatus(s model.Student) string { return s.Status }

// ByYear selects the year field.
func ByYear(s model.Student) string { return strconv.Itoa(s.Year) }

// CourseDistribution counts students per course name.
func CourseDistribution(students []model.Student, courses []model.Course) map[string]int {
	counts := make(map[string]int)
	for _, s := range students {
		counts[courseName(courses, s.Course)]++
	}
	return counts
}

// SortedYears orders a year distribution's keys ascending for charting.
func SortedYears(dist map[string]int) []string {
	years := make([]string, 0, len(dist))
	for y := range dist {
		years = append(years, y)
	}
	sort.Slice(years, func(i, j int) bool {
		a, _ := strconv.Atoi(years[i])
		b, _ := strconv.Atoi(years[j])
		return a < b
	})
	return years
}

// AvailableSemesters returns the sorted distinct non-null semesters among
// students of the given course. Feeds the dependent semester selector;
// recomputed whenever the course selection changes.
func AvailableSemesters(courseID string, students []model.Student) []int {
	seen := make(map[int]bool)
	for _, s := range students {
		if s.Course.String() != courseID || s.Semester == nil {
			continue
		}
		seen[*s.Semester] = true
	}
	semesters := make([]int, 0, len(seen))
	for sem := range seen {
		semesters = append(semesters, sem)
	}
	sort.Ints(semesters)
	return semesters
}

// FilterStudents narrows students by course name and/or semester. Empty
// course name and nil semester match everything.
func FilterStudents(students []model.Student, courses []model.Course, course string, semester *int) []model.Student {
	var out []model.Student
	for _, s := range students {
		if course != "" && courseName(courses, s.Course) != course {
			continue
		}
		if semester != nil && (s.Semester == nil || *s.Semester != *semester) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func courseName(courses []model.Course, ref model.Ref) string {
	if c := model.CourseByID(courses, ref.String()); c != nil {
		return c.Name
	}
	return SemesterNA
}
