package importer

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"attendhub/internal/model"
)

func intp(v int) *int { return &v }

var loadedCourses = []model.Course{
	{ID: "c1", Name: "BCA", Duration: 36},
	{ID: "c2", Name: "MCA", Duration: 24},
}

var loadedStudents = []model.Student{
	{ID: "s1", Name: "Existing", ABCID: 42, Course: "c1", Semester: intp(1)},
}

func TestValidateStudentRowMissingName(t *testing.T) {
	row := ValidateStudentRow(map[string]string{
		ColName:   "",
		ColABCID:  "7",
		ColCourse: "BCA",
	}, loadedStudents, loadedCourses)
	if row.Valid {
		t.Fatalf("expected invalid row")
	}
	if !contains(row.Errors, "Name is missing.") {
		t.Fatalf("expected name error, got %v", row.Errors)
	}
}

func TestValidateStudentRowInvalidABCID(t *testing.T) {
	row := ValidateStudentRow(map[string]string{
		ColName:   "Jane",
		ColABCID:  "abc",
		ColCourse: "BCA",
	}, loadedStudents, loadedCourses)
	if row.Valid {
		t.Fatalf("expected invalid row")
	}
	if !contains(row.Errors, "Invalid ABC ID.") {
		t.Fatalf("expected ABC ID error, got %v", row.Errors)
	}
}

func TestValidateStudentRowDuplicateID(t *testing.T) {
	// ID 42 already loaded; flagged regardless of other fields.
	for _, name := range []string{"Jane", "Someone Else"} {
		row := ValidateStudentRow(map[string]string{
			ColName:   name,
			ColABCID:  "42",
			ColCourse: "BCA",
		}, loadedStudents, loadedCourses)
		if row.Valid {
			t.Fatalf("expected duplicate id to invalidate row")
		}
		if !contains(row.Errors, "ABC ID already exists.") {
			t.Fatalf("expected duplicate error, got %v", row.Errors)
		}
	}
}

func TestValidateStudentRowUnknownCourse(t *testing.T) {
	row := ValidateStudentRow(map[string]string{
		ColName:   "Jane",
		ColABCID:  "7",
		ColCourse: "BBA",
	}, loadedStudents, loadedCourses)
	if row.Valid {
		t.Fatalf("expected invalid row")
	}
	if !contains(row.Errors, `Course "BBA" does not exist.`) {
		t.Fatalf("expected course error, got %v", row.Errors)
	}
}

func TestValidateStudentRowValid(t *testing.T) {
	row := ValidateStudentRow(map[string]string{
		ColName:     "Jane",
		ColABCID:    "7",
		ColCourse:   "BCA",
		ColSemester: "2",
	}, loadedStudents, loadedCourses)
	if !row.Valid || len(row.Errors) != 0 {
		t.Fatalf("expected valid row, got %v", row.Errors)
	}
}

func TestValidationIsIdempotent(t *testing.T) {
	fields := map[string]string{
		ColName:   "",
		ColABCID:  "abc",
		ColCourse: "BBA",
	}
	first := ValidateStudentRow(fields, loadedStudents, loadedCourses)
	second := ValidateStudentRow(fields, loadedStudents, loadedCourses)
	if first.Valid != second.Valid || !reflect.DeepEqual(first.Errors, second.Errors) {
		t.Fatalf("validation not idempotent: %v vs %v", first.Errors, second.Errors)
	}
}

func TestValidateCourseRow(t *testing.T) {
	cases := []struct {
		name    string
		fields  map[string]string
		valid   bool
		wantErr string
	}{
		{"missing name", map[string]string{ColProgramme: " ", ColDuration: "36"}, false, "Course name is missing."},
		{"bad duration", map[string]string{ColProgramme: "BBA", ColDuration: "three"}, false, "Invalid duration."},
		{"duplicate ci name and duration", map[string]string{ColProgramme: "bca", ColDuration: "36"}, false, "Course already exists."},
		{"same name different duration", map[string]string{ColProgramme: "BCA", ColDuration: "24"}, true, ""},
		{"new course", map[string]string{ColProgramme: "BBA", ColDuration: "36"}, true, ""},
	}
	for _, tc := range cases {
		row := ValidateCourseRow(tc.fields, loadedCourses)
		if row.Valid != tc.valid {
			t.Fatalf("%s: expected valid=%v, got errors %v", tc.name, tc.valid, row.Errors)
		}
		if tc.wantErr != "" && !contains(row.Errors, tc.wantErr) {
			t.Fatalf("%s: expected %q, got %v", tc.name, tc.wantErr, row.Errors)
		}
	}
}

func TestStudentFromRow(t *testing.T) {
	s := StudentFromRow(map[string]string{
		ColName:     " Jane ",
		ColABCID:    "7",
		ColCourse:   "BCA",
		ColSemester: "2",
		ColGender:   "Female",
		ColBatch:    "2023-26",
		ColYear:     "2023",
		ColAddress:  "12 Hill Road",
	}, loadedCourses)
	if s.Name != "Jane" || s.ABCID != 7 || s.Course.String() != "c1" {
		t.Fatalf("unexpected student: %+v", s)
	}
	if s.Semester == nil || *s.Semester != 2 {
		t.Fatalf("expected semester 2, got %v", s.Semester)
	}
	if s.Status != model.StatusActive {
		t.Fatalf("expected default Active status, got %s", s.Status)
	}
}

func TestParseFirstSheetHeaderMapping(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Name", "ABC ID", "Course", "Ignored Column"},
		{"Jane", "7", "BCA", "noise"},
		{"", "", "", ""},
		{"Raj", "8", "MCA", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	parsed, err := Parse(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 data rows (blank skipped), got %d", len(parsed))
	}
	if parsed[0][ColName] != "Jane" || parsed[0][ColABCID] != "7" {
		t.Fatalf("unexpected first row: %v", parsed[0])
	}
	if parsed[1][ColCourse] != "MCA" {
		t.Fatalf("unexpected second row: %v", parsed[1])
	}
	if _, ok := parsed[0]["Ignored Column"]; !ok {
		t.Fatalf("unknown columns should be carried through")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse(bytes.NewReader([]byte("not a workbook"))); err == nil {
		t.Fatalf("expected parse error")
	}
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}
