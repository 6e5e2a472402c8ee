package report

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"attendhub/internal/model"
)

func intp(v int) *int { return &v }

var testCourses = []model.Course{{ID: "c1", Name: "BCA", Duration: 36}}

func TestStudentRowsColumnsAndDefaults(t *testing.T) {
	students := []model.Student{
		{ID: "s1", Name: "Jane", ABCID: 7, Gender: "Female", Status: "Active",
			Course: "c1", Semester: intp(2), Batch: "2023-26", Year: 2023, Address: "12 Hill Road"},
		{ID: "s2", Name: "Raj", ABCID: 8, Course: "ghost"},
	}
	rows := StudentRows(students, testCourses)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	want := []string{"Jane", "7", "Female", "Active", "BCA", "2", "2023-26", "2023", "12 Hill Road"}
	for i, cell := range want {
		if rows[0][i] != cell {
			t.Fatalf("column %d: expected %q, got %q", i, cell, rows[0][i])
		}
	}
	// Missing optional fields become N/A.
	if rows[1][2] != "N/A" || rows[1][4] != "N/A" || rows[1][5] != "N/A" {
		t.Fatalf("expected N/A substitutions, got %v", rows[1])
	}
}

func TestAttendanceRowsResolveReferences(t *testing.T) {
	students := []model.Student{
		{ID: "s1", Name: "Jane", ABCID: 7, Course: "c1", Semester: intp(1)},
	}
	marked := time.Date(2024, 1, 15, 9, 30, 5, 0, time.UTC)
	records := []model.AttendanceRecord{
		{ID: "a1", Student: "s1", Course: "c1", Status: "Present", MarkedBy: "admin", MarkedAt: marked},
	}
	rows := AttendanceRows(records, students, testCourses)
	want := []string{"2024-01-15", "09:30:05", "Jane", "7", "BCA", "1", "Present", "admin"}
	for i, cell := range want {
		if rows[0][i] != cell {
			t.Fatalf("column %d: expected %q, got %q", i, cell, rows[0][i])
		}
	}
}

func TestExcelBytesRoundTrip(t *testing.T) {
	data, err := ExcelBytes("Students", StudentHeader, [][]string{
		{"Jane", "7", "Female", "Active", "BCA", "2", "2023-26", "2023", "12 Hill Road"},
	})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Students")
	if err != nil {
		t.Fatalf("read rows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus 1 row, got %d", len(rows))
	}
	if rows[0][0] != "Name" || rows[1][0] != "Jane" {
		t.Fatalf("unexpected content: %v", rows)
	}
}

func TestExportAbortsOnEmptyData(t *testing.T) {
	if _, err := ExcelBytes("Students", StudentHeader, nil); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if _, err := PDFBytes("Attendance", AttendanceHeader, nil); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestPDFBytesProducesDocument(t *testing.T) {
	data, err := PDFBytes("Attendance Report", AttendanceHeader, [][]string{
		{"2024-01-15", "09:30:05", "Jane", "7", "BCA", "1", "Present", "admin"},
	})
	if err != nil {
		t.Fatalf("pdf export failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected PDF magic, got %q", data[:8])
	}
}

func TestFilenamesDeterministicFromFilters(t *testing.T) {
	if got := StudentExportName("", nil, "xlsx"); got != "students.xlsx" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := StudentExportName("BCA Honours", intp(2), "xlsx"); got != "students_BCA-Honours_sem2.xlsx" {
		t.Fatalf("unexpected name %q", got)
	}
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	got := AttendanceExportName("BCA", intp(1), &from, &to, "", "pdf")
	if got != "attendance_BCA_sem1_2024-01-01_2024-01-02.pdf" {
		t.Fatalf("unexpected name %q", got)
	}
	// Same filters, same name; content never participates.
	again := AttendanceExportName("BCA", intp(1), &from, &to, "", "pdf")
	if got != again {
		t.Fatalf("filename not deterministic: %q vs %q", got, again)
	}
}
