// Package importer parses bulk-import spreadsheets and validates rows
// against the currently loaded entity lists. Only rows with zero errors
// are eligible for creation; invalid rows are kept with their error list
// so the dashboard can display them.
package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"attendhub/internal/model"
)

// Row is one spreadsheet row annotated with its validation outcome.
type Row struct {
	Line   int               `json:"line"`
	Fields map[string]string `json:"fields"`
	Valid  bool              `json:"valid"`
	Errors []string          `json:"errors"`
}

// Parse reads the first sheet of an xlsx workbook. The header row maps to
// field names; unknown columns are carried through and ignored by the
// validators. One map per data row.
func Parse(r io.Reader) ([]map[string]string, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = file.Close() }()

	sheet := file.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("worksheet is empty")
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	var out []map[string]string
	for _, row := range rows[1:] {
		fields := make(map[string]string, len(headers))
		empty := true
		for i, header := range headers {
			if header == "" {
				continue
			}
			val := cellValue(row, i)
			if val != "" {
				empty = false
			}
			fields[header] = val
		}
		if empty {
			continue
		}
		out = append(out, fields)
	}
	return out, nil
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Student import column headers.
const (
	ColName     = "Name"
	ColABCID    = "ABC ID"
	ColGender   = "Gender"
	ColStatus   = "Status"
	ColCourse   = "Course"
	ColSemester = "Semester"
	ColBatch    = "Batch"
	ColYear     = "Year"
	ColAddress  = "Address"
)

// Course import column headers.
const (
	ColProgramme = "Programme"
	ColDuration  = "Duration"
)

// ValidateStudentRow checks one student row against the loaded lists. The
// result is deterministic for identical input, so re-validating a row on
// confirm yields the same outcome.
func ValidateStudentRow(fields map[string]string, students []model.Student, courses []model.Course) Row {
	row := Row{Fields: fields, Errors: []string{}}

	if strings.TrimSpace(fields[ColName]) == "" {
		row.Errors = append(row.Errors, "Name is missing.")
	}

	abcRaw := strings.TrimSpace(fields[ColABCID])
	abcID, err := strconv.ParseInt(abcRaw, 10, 64)
	if abcRaw == "" || err != nil {
		row.Errors = append(row.Errors, "Invalid ABC ID.")
	} else {
		for _, s := range students {
			if s.ABCID == abcID {
				row.Errors = append(row.Errors, "ABC ID already exists.")
				break
			}
		}
	}

	courseName := strings.TrimSpace(fields[ColCourse])
	if courseName == "" {
		row.Errors = append(row.Errors, "Course is missing.")
	} else if findCourseExact(courses, courseName) == nil {
		row.Errors = append(row.Errors, fmt.Sprintf("Course %q does not exist.", courseName))
	}

	if semRaw := strings.TrimSpace(fields[ColSemester]); semRaw != "" {
		if sem, err := strconv.Atoi(semRaw); err != nil || sem <= 0 {
			row.Errors = append(row.Errors, "Invalid semester.")
		}
	}

	row.Valid = len(row.Errors) == 0
	return row
}

// ValidateCourseRow checks one course row. A duplicate is an existing
// course with the same name (case-insensitive) and the same duration.
func ValidateCourseRow(fields map[string]string, courses []model.Course) Row {
	row := Row{Fields: fields, Errors: []string{}}

	name := strings.TrimSpace(fields[ColProgramme])
	if name == "" {
		row.Errors = append(row.Errors, "Course name is missing.")
	}

	durRaw := strings.TrimSpace(fields[ColDuration])
	duration, err := strconv.Atoi(durRaw)
	if durRaw == "" || err != nil {
		row.Errors = append(row.Errors, "Invalid duration.")
	} else if name != "" {
		for _, c := range courses {
			if strings.EqualFold(c.Name, name) && c.Duration == duration {
				row.Errors = append(row.Errors, "Course already exists.")
				break
			}
		}
	}

	row.Valid = len(row.Errors) == 0
	return row
}

// ValidateStudentRows annotates every row, numbering lines from 2 to match
// the spreadsheet (row 1 is the header).
func ValidateStudentRows(rows []map[string]string, students []model.Student, courses []model.Course) []Row {
	out := make([]Row, 0, len(rows))
	for i, fields := range rows {
		row := ValidateStudentRow(fields, students, courses)
		row.Line = i + 2
		out = append(out, row)
	}
	return out
}

// ValidateCourseRows annotates every course row.
func ValidateCourseRows(rows []map[string]string, courses []model.Course) []Row {
	out := make([]Row, 0, len(rows))
	for i, fields := range rows {
		row := ValidateCourseRow(fields, courses)
		row.Line = i + 2
		out = append(out, row)
	}
	return out
}

// StudentFromRow builds the entity a valid student row creates.
func StudentFromRow(fields map[string]string, courses []model.Course) model.Student {
	abcID, _ := strconv.ParseInt(strings.TrimSpace(fields[ColABCID]), 10, 64)
	year, _ := strconv.Atoi(strings.TrimSpace(fields[ColYear]))

	var semester *int
	if semRaw := strings.TrimSpace(fields[ColSemester]); semRaw != "" {
		if sem, err := strconv.Atoi(semRaw); err == nil && sem > 0 {
			semester = &sem
		}
	}

	var courseRef model.Ref
	if c := findCourseExact(courses, strings.TrimSpace(fields[ColCourse])); c != nil {
		courseRef = model.Ref(c.ID)
	}

	status := strings.TrimSpace(fields[ColStatus])
	if status == "" {
		status = model.StatusActive
	}

	return model.Student{
		Name:     strings.TrimSpace(fields[ColName]),
		Gender:   strings.TrimSpace(fields[ColGender]),
		ABCID:    abcID,
		Status:   status,
		Course:   courseRef,
		Semester: semester,
		Batch:    strings.TrimSpace(fields[ColBatch]),
		Year:     year,
		Address:  strings.TrimSpace(fields[ColAddress]),
	}
}

// CourseFromRow builds the entity a valid course row creates.
func CourseFromRow(fields map[string]string) model.Course {
	duration, _ := strconv.Atoi(strings.TrimSpace(fields[ColDuration]))
	return model.Course{
		Name:       strings.TrimSpace(fields[ColProgramme]),
		Duration:   duration,
		Status:     model.StatusActive,
		LinkStatus: model.StatusInactive,
	}
}

// findCourseExact matches by exact name, the rule student rows are
// validated with (course duplicates use case-insensitive matching).
func findCourseExact(courses []model.Course, name string) *model.Course {
	for i := range courses {
		if courses[i].Name == name {
			return &courses[i]
		}
	}
	return nil
}
