package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"attendhub/internal/aggregate"
	"attendhub/internal/model"
	"attendhub/internal/records"
	"attendhub/internal/report"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) exportStudentsXLSX(c *gin.Context) {
	semester, ok := parseSemester(c)
	if !ok {
		badRequest(c, "semester must be a positive integer")
		return
	}
	courseName := strings.TrimSpace(c.Query("course"))

	snap, err := s.facade.LoadAll(c.Request.Context())
	if err != nil {
		storeFail(c, err)
		return
	}

	filtered := aggregate.FilterStudents(snap.Students, snap.Courses, courseName, semester)
	data, err := report.ExcelBytes("Students", report.StudentHeader, report.StudentRows(filtered, snap.Courses))
	if err != nil {
		exportFail(c, err)
		return
	}
	sendFile(c, report.StudentExportName(courseName, semester, "xlsx"), xlsxMIME, data)
}

func (s *Server) exportAttendanceXLSX(c *gin.Context) {
	s.exportAttendance(c, "xlsx")
}

func (s *Server) exportAttendancePDF(c *gin.Context) {
	s.exportAttendance(c, "pdf")
}

func (s *Server) exportAttendance(c *gin.Context, ext string) {
	semester, ok := parseSemester(c)
	if !ok {
		badRequest(c, "semester must be a positive integer")
		return
	}
	courseName := strings.TrimSpace(c.Query("course"))
	studentName := strings.TrimSpace(c.Query("student"))

	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	snap, err := s.facade.LoadAll(c.Request.Context())
	if err != nil {
		storeFail(c, err)
		return
	}

	filtered := filterAttendance(snap, courseName, semester, studentName, from, to)
	rows := report.AttendanceRows(filtered, snap.Students, snap.Courses)
	name := report.AttendanceExportName(courseName, semester, from, to, studentName, ext)

	var data []byte
	if ext == "pdf" {
		data, err = report.PDFBytes("Attendance Report", report.AttendanceHeader, rows)
	} else {
		data, err = report.ExcelBytes("Attendance", report.AttendanceHeader, rows)
	}
	if err != nil {
		exportFail(c, err)
		return
	}
	mime := xlsxMIME
	if ext == "pdf" {
		mime = "application/pdf"
	}
	sendFile(c, name, mime, data)
}

// filterAttendance applies the export filters in sequence over the
// snapshot. Every filter is optional.
func filterAttendance(snap *records.Snapshot, courseName string, semester *int, studentName string, from, to *time.Time) []model.AttendanceRecord {
	recs := snap.Attendance
	if from != nil && to != nil {
		recs = aggregate.FilterByRange(recs, *from, *to)
	}
	if courseName == "" && semester == nil && studentName == "" {
		return recs
	}
	var out []model.AttendanceRecord
	for _, rec := range recs {
		if courseName != "" {
			course := model.CourseByID(snap.Courses, rec.Course.String())
			if course == nil || !strings.EqualFold(course.Name, courseName) {
				continue
			}
		}
		if semester != nil || studentName != "" {
			student := model.StudentByID(snap.Students, rec.Student.String())
			if student == nil {
				continue
			}
			if semester != nil && (student.Semester == nil || *student.Semester != *semester) {
				continue
			}
			if studentName != "" && !strings.EqualFold(student.Name, studentName) {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

func parseDateRange(c *gin.Context) (from, to *time.Time, ok bool) {
	fromRaw := c.Query("from")
	toRaw := c.Query("to")
	if fromRaw == "" && toRaw == "" {
		return nil, nil, true
	}
	if fromRaw == "" || toRaw == "" {
		badRequest(c, "from and to must be supplied together")
		return nil, nil, false
	}
	f, err := time.ParseInLocation("2006-01-02", fromRaw, time.Local)
	if err != nil {
		badRequest(c, "from must be YYYY-MM-DD")
		return nil, nil, false
	}
	t, err := time.ParseInLocation("2006-01-02", toRaw, time.Local)
	if err != nil {
		badRequest(c, "to must be YYYY-MM-DD")
		return nil, nil, false
	}
	if t.Before(f) {
		badRequest(c, "to before from")
		return nil, nil, false
	}
	return &f, &t, true
}

// exportFail maps an empty result to 404 with the exact user-facing
// message; anything else is an export failure.
func exportFail(c *gin.Context, err error) {
	if errors.Is(err, report.ErrNoData) {
		c.JSON(http.StatusNotFound, gin.H{"error": report.ErrNoData.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func sendFile(c *gin.Context, name, mime string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, mime, data)
}
