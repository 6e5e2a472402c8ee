package aggregate

import (
	"testing"
	"time"

	"attendhub/internal/model"
)

func intp(v int) *int { return &v }

var testCourses = []model.Course{
	{ID: "c1", Name: "BCA", Duration: 36, Status: model.StatusActive},
	{ID: "c2", Name: "MCA", Duration: 24, Status: model.StatusActive},
}

func TestGroupStudentsEveryStudentInExactlyOneGroup(t *testing.T) {
	students := []model.Student{
		{ID: "s1", Course: "c1", Semester: intp(1)},
		{ID: "s2", Course: "c1", Semester: intp(2)},
		{ID: "s3", Course: "c1", Semester: intp(1)},
		{ID: "s4", Course: "c2", Semester: nil},
	}
	groups := GroupStudents(students, testCourses)

	total := 0
	for _, bySem := range groups {
		for _, items := range bySem {
			total += len(items)
		}
	}
	if total != len(students) {
		t.Fatalf("expected %d grouped students, got %d", len(students), total)
	}
	if len(groups["BCA"]["1"]) != 2 || len(groups["BCA"]["2"]) != 1 {
		t.Fatalf("unexpected BCA groups: %+v", groups["BCA"])
	}
	if len(groups["MCA"][SemesterNA]) != 1 {
		t.Fatalf("expected s4 under MCA/N/A, got %+v", groups["MCA"])
	}
	// Group keys are exactly the distinct (course, semester) pairs present.
	if len(groups) != 2 || len(groups["BCA"]) != 2 || len(groups["MCA"]) != 1 {
		t.Fatalf("unexpected group keys: %+v", groups)
	}
}

func TestGroupStudentsPreservesInputOrder(t *testing.T) {
	students := []model.Student{
		{ID: "s1", Course: "c1", Semester: intp(1)},
		{ID: "s2", Course: "c1", Semester: intp(1)},
		{ID: "s3", Course: "c1", Semester: intp(1)},
	}
	group := GroupStudents(students, testCourses)["BCA"]["1"]
	for i, s := range group {
		if s.ID != students[i].ID {
			t.Fatalf("order not preserved at %d: got %s", i, s.ID)
		}
	}
}

func TestSemesterLabelsNumericAscendingNALast(t *testing.T) {
	group := map[string][]model.Student{
		"10":       nil,
		"2":        nil,
		SemesterNA: nil,
		"1":        nil,
	}
	labels := SemesterLabels(group)
	want := []string{"1", "2", "10", SemesterNA}
	if len(labels) != len(want) {
		t.Fatalf("expected %v, got %v", want, labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, labels)
		}
	}
}

func TestFilterByDayMatchesCalendarDayNotWindow(t *testing.T) {
	day := time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC)
	records := []model.AttendanceRecord{
		{ID: "a1", MarkedAt: time.Date(2024, 1, 15, 0, 5, 0, 0, time.UTC)},
		{ID: "a2", MarkedAt: time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC)},
		{ID: "a3", MarkedAt: time.Date(2024, 1, 16, 0, 1, 0, 0, time.UTC)},
		{ID: "a4", MarkedAt: time.Date(2024, 1, 14, 23, 59, 0, 0, time.UTC)},
	}
	got := FilterByDay(records, day)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].ID != "a1" || got[1].ID != "a2" {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestFilterByRangeInclusive(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	records := []model.AttendanceRecord{
		{ID: "a1", MarkedAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)},
		{ID: "a2", MarkedAt: time.Date(2024, 1, 2, 23, 59, 0, 0, time.UTC)},
		{ID: "a3", MarkedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
	}
	got := FilterByRange(records, from, to)
	if len(got) != 2 {
		t.Fatalf("expected 2 records in range, got %d", len(got))
	}
}

func TestDistributionCounts(t *testing.T) {
	students := []model.Student{
		{Gender: "Female", Status: model.StatusActive, Year: 2023},
		{Gender: "Male", Status: model.StatusActive, Year: 2022},
		{Gender: "Female", Status: model.StatusInactive, Year: 2023},
	}
	gender := Distribution(students, ByGender)
	if gender["Female"] != 2 || gender["Male"] != 1 {
		t.Fatalf("unexpected gender counts: %v", gender)
	}
	status := Distribution(students, ByStatus)
	if status[model.StatusActive] != 2 || status[model.StatusInactive] != 1 {
		t.Fatalf("unexpected status counts: %v", status)
	}
	years := Distribution(students, ByYear)
	sorted := SortedYears(years)
	if len(sorted) != 2 || sorted[0] != "2022" || sorted[1] != "2023" {
		t.Fatalf("unexpected year order: %v", sorted)
	}
}

func TestAvailableSemesters(t *testing.T) {
	students := []model.Student{
		{ID: "s1", Course: "c1", Semester: intp(1)},
		{ID: "s2", Course: "c1", Semester: intp(2)},
		{ID: "s3", Course: "c1", Semester: intp(2)},
		{ID: "s4", Course: "c1", Semester: nil},
		{ID: "s5", Course: "c2", Semester: intp(4)},
	}
	got := AvailableSemesters("c1", students)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected [1 2], got %v", got)
	}
	if got := AvailableSemesters("c3", students); len(got) != 0 {
		t.Fatalf("expected no semesters for unknown course, got %v", got)
	}
}

func TestFilterStudentsByCourseAndSemester(t *testing.T) {
	students := []model.Student{
		{ID: "s1", Course: "c1", Semester: intp(1)},
		{ID: "s2", Course: "c1", Semester: intp(2)},
		{ID: "s3", Course: "c2", Semester: intp(1)},
	}
	got := FilterStudents(students, testCourses, "BCA", intp(1))
	if len(got) != 1 || got[0].ID != "s1" {
		t.Fatalf("expected [s1], got %+v", got)
	}
	if got := FilterStudents(students, testCourses, "", nil); len(got) != 3 {
		t.Fatalf("expected all students, got %d", len(got))
	}
}

func TestGroupAttendanceSemesterFromStudent(t *testing.T) {
	students := []model.Student{
		{ID: "s1", Course: "c1", Semester: intp(3)},
	}
	records := []model.AttendanceRecord{
		{ID: "a1", Student: "s1", Course: "c1", Status: model.AttendancePresent},
		{ID: "a2", Student: "ghost", Course: "c1", Status: model.AttendanceAbsent},
	}
	groups := GroupAttendance(records, students, testCourses)
	if len(groups["BCA"]["3"]) != 1 {
		t.Fatalf("expected a1 under BCA/3, got %+v", groups["BCA"])
	}
	if len(groups["BCA"][SemesterNA]) != 1 {
		t.Fatalf("expected unresolved student under N/A, got %+v", groups["BCA"])
	}
}
