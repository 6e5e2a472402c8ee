package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"attendhub/internal/aggregate"
	"attendhub/internal/model"
)

// ---- courses ----

type courseRequest struct {
	Name       string `json:"name" binding:"required"`
	Duration   int    `json:"duration" binding:"required"`
	Status     string `json:"status"`
	LinkStatus string `json:"linkStatus"`
}

func (s *Server) listCourses(c *gin.Context) {
	courses, err := s.facade.ListCourses(c.Request.Context())
	if err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (s *Server) createCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	course := model.Course{
		Name:       req.Name,
		Duration:   req.Duration,
		Status:     defaultStatus(req.Status),
		LinkStatus: defaultLink(req.LinkStatus),
	}
	created, err := s.facade.CreateCourse(c.Request.Context(), course)
	if err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) updateCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	course := model.Course{
		ID:         c.Param("id"),
		Name:       req.Name,
		Duration:   req.Duration,
		Status:     defaultStatus(req.Status),
		LinkStatus: defaultLink(req.LinkStatus),
	}
	updated, err := s.facade.UpdateCourse(c.Request.Context(), course)
	if err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteCourse(c *gin.Context) {
	if err := s.facade.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
		storeFail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// toggleCourseLink flips the check-in link independently of the course
// status; the QR deriver observes the resulting change event.
func (s *Server) toggleCourseLink(c *gin.Context) {
	var req struct {
		LinkStatus string `json:"linkStatus" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.LinkStatus != model.StatusActive && req.LinkStatus != model.StatusInactive {
		badRequest(c, "linkStatus must be Active or Inactive")
		return
	}

	courses, err := s.facade.ListCourses(c.Request.Context())
	if err != nil {
		storeFail(c, err)
		return
	}
	course := model.CourseByID(courses, c.Param("id"))
	if course == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	course.LinkStatus = req.LinkStatus
	updated, err := s.facade.UpdateCourse(c.Request.Context(), *course)
	if err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) availableSemesters(c *gin.Context) {
	students, err := s.facade.ListStudents(c.Request.Context())
	if err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"semesters": aggregate.AvailableSemesters(c.Param("id"), students)})
}

// ---- students ----

type studentRequest struct {
	Name     string `json:"name" binding:"required"`
	Gender   string `json:"gender"`
	ABCID    int64  `json:"abcId" binding:"required"`
	Status   string `json:"status"`
	Course   string `json:"course" binding:"required"`
	Semester *int   `json:"semester"`
	Batch    string `json:"batch"`
	Year     int    `json:"year"`
	Address  string `json:"address"`
}

func (s *Server) listStudents(c *gin.Context) {
	students, err := s.facade.ListStudents(c.Request.Context())
	if err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (s *Server) groupedStudents(c *gin.Context) {
	var students []model.Student
	var courses []model.Course
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) { students, err = s.facade.ListStudents(ctx); return })
	g.Go(func() (err error) { courses, err = s.facade.ListCourses(ctx); return })
	if err := g.Wait(); err != nil {
		storeFail(c, err)
		return
	}

	groups := aggregate.GroupStudents(students, courses)
	order := make(map[string][]string, len(groups))
	for course, bySem := range groups {
		order[course] = aggregate.SemesterLabels(bySem)
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups, "semesterOrder": order})
}

func (s *Server) createStudent(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	student := model.Student{
		Name:     req.Name,
		Gender:   req.Gender,
		ABCID:    req.ABCID,
		Status:   defaultStatus(req.Status),
		Course:   model.Ref(req.Course),
		Semester: req.Semester,
		Batch:    req.Batch,
		Year:     req.Year,
		Address:  req.Address,
	}
	created, err := s.facade.CreateStudent(c.Request.Context(), student)
	if err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) updateStudent(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	student := model.Student{
		ID:       c.Param("id"),
		Name:     req.Name,
		Gender:   req.Gender,
		ABCID:    req.ABCID,
		Status:   defaultStatus(req.Status),
		Course:   model.Ref(req.Course),
		Semester: req.Semester,
		Batch:    req.Batch,
		Year:     req.Year,
		Address:  req.Address,
	}
	updated, err := s.facade.UpdateStudent(c.Request.Context(), student)
	if err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteStudent(c *gin.Context) {
	if err := s.facade.DeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		storeFail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- attendance ----

type attendanceRequest struct {
	Student     string             `json:"student" binding:"required"`
	Course      string             `json:"course" binding:"required"`
	Status      string             `json:"status" binding:"required"`
	MarkedBy    string             `json:"markedBy"`
	Coordinates *model.Coordinates `json:"coordinates"`
}

func validAttendanceStatus(status string) bool {
	switch status {
	case model.AttendancePresent, model.AttendanceAbsent, model.AttendanceLate:
		return true
	}
	return false
}

func (s *Server) listAttendance(c *gin.Context) {
	attendance, err := s.facade.ListAttendance(c.Request.Context())
	if err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": attendance})
}

func (s *Server) groupedAttendance(c *gin.Context) {
	snap, err := s.facade.LoadAll(c.Request.Context())
	if err != nil {
		storeFail(c, err)
		return
	}
	groups := aggregate.GroupAttendance(snap.Attendance, snap.Students, snap.Courses)
	order := make(map[string][]string, len(groups))
	for course, bySem := range groups {
		order[course] = aggregate.SemesterLabels(bySem)
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups, "semesterOrder": order})
}

func (s *Server) dailyAttendance(c *gin.Context) {
	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			badRequest(c, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}
	attendance, err := s.facade.ListAttendance(c.Request.Context())
	if err != nil {
		storeFail(c, err)
		return
	}
	daily := aggregate.FilterByDay(attendance, date)
	c.JSON(http.StatusOK, gin.H{"date": date.Format("2006-01-02"), "attendance": daily, "count": len(daily)})
}

func (s *Server) createAttendance(c *gin.Context) {
	var req attendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !validAttendanceStatus(req.Status) {
		badRequest(c, "status must be Present, Absent or Late")
		return
	}
	rec := model.AttendanceRecord{
		Student:     model.Ref(req.Student),
		Course:      model.Ref(req.Course),
		Status:      req.Status,
		MarkedBy:    req.MarkedBy,
		MarkedAt:    time.Now(),
		Coordinates: req.Coordinates,
	}
	created, err := s.facade.CreateAttendance(c.Request.Context(), rec)
	if err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

type bulkAttendanceRequest struct {
	Course      string             `json:"course" binding:"required"`
	Status      string             `json:"status"`
	MarkedBy    string             `json:"markedBy"`
	Coordinates *model.Coordinates `json:"coordinates"`
	StudentIDs  []string           `json:"studentIds" binding:"required"`
}

// bulkAttendance records one attendance entry per roster student. The
// batch deduplicates against records already marked today; creations run
// concurrently and any failure fails the batch without reconciling earlier
// writes (the store may have partially committed).
func (s *Server) bulkAttendance(c *gin.Context) {
	var req bulkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Coordinates == nil {
		badRequest(c, "coordinates required")
		return
	}
	status := req.Status
	if status == "" {
		status = model.AttendancePresent
	}
	if !validAttendanceStatus(status) {
		badRequest(c, "status must be Present, Absent or Late")
		return
	}

	existing, err := s.facade.ListAttendance(c.Request.Context())
	if err != nil {
		storeFail(c, err)
		return
	}
	now := time.Now()
	markedToday := make(map[string]bool)
	for _, rec := range aggregate.FilterByDay(existing, now) {
		markedToday[rec.Student.String()] = true
	}

	g, ctx := errgroup.WithContext(c.Request.Context())
	created := 0
	skipped := 0
	seen := make(map[string]bool)
	for _, studentID := range req.StudentIDs {
		if studentID == "" || seen[studentID] {
			continue
		}
		seen[studentID] = true
		if markedToday[studentID] {
			skipped++
			continue
		}
		created++
		rec := model.AttendanceRecord{
			Student:     model.Ref(studentID),
			Course:      model.Ref(req.Course),
			Status:      status,
			MarkedBy:    req.MarkedBy,
			MarkedAt:    now,
			Coordinates: req.Coordinates,
		}
		g.Go(func() error {
			_, err := s.facade.CreateAttendance(ctx, rec)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": created, "skipped": skipped})
}

func (s *Server) updateAttendance(c *gin.Context) {
	var req attendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !validAttendanceStatus(req.Status) {
		badRequest(c, "status must be Present, Absent or Late")
		return
	}
	rec := model.AttendanceRecord{
		ID:          c.Param("id"),
		Student:     model.Ref(req.Student),
		Course:      model.Ref(req.Course),
		Status:      req.Status,
		MarkedBy:    req.MarkedBy,
		MarkedAt:    time.Now(),
		Coordinates: req.Coordinates,
	}
	updated, err := s.facade.UpdateAttendance(c.Request.Context(), rec)
	if err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteAttendance(c *gin.Context) {
	if err := s.facade.DeleteAttendance(c.Request.Context(), c.Param("id")); err != nil {
		storeFail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- locations ----

func (s *Server) listLocations(c *gin.Context) {
	locations, err := s.facade.ListLocations(c.Request.Context())
	if err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

// createLocation stamps a new current location. Coordinates come from the
// client's geolocation request; a failed lookup on the client blocks the
// submission there, so absence here is a validation error.
func (s *Server) createLocation(c *gin.Context) {
	var req struct {
		Latitude  *float64 `json:"latitude" binding:"required"`
		Longitude *float64 `json:"longitude" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "coordinates required")
		return
	}
	loc := model.Location{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		CreatedAt: time.Now().UTC(),
	}
	created, err := s.facade.CreateLocation(c.Request.Context(), loc)
	if err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ---- holidays ----

func (s *Server) listHolidays(c *gin.Context) {
	holidays, err := s.facade.ListHolidays(c.Request.Context())
	if err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"holidays": holidays})
}

func (s *Server) createHoliday(c *gin.Context) {
	var req struct {
		Title     string `json:"title" binding:"required"`
		StartDate string `json:"startDate" binding:"required"`
		EndDate   string `json:"endDate" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		badRequest(c, "startDate must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		badRequest(c, "endDate must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		badRequest(c, "endDate before startDate")
		return
	}
	created, err := s.facade.CreateHoliday(c.Request.Context(), model.Holiday{
		Title:     req.Title,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) deleteHoliday(c *gin.Context) {
	if err := s.facade.DeleteHoliday(c.Request.Context(), c.Param("id")); err != nil {
		storeFail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- dashboard ----

func (s *Server) distributions(c *gin.Context) {
	var students []model.Student
	var courses []model.Course
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) { students, err = s.facade.ListStudents(ctx); return })
	g.Go(func() (err error) { courses, err = s.facade.ListCourses(ctx); return })
	if err := g.Wait(); err != nil {
		storeFail(c, err)
		return
	}

	years := aggregate.Distribution(students, aggregate.ByYear)
	c.JSON(http.StatusOK, gin.H{
		"gender":    aggregate.Distribution(students, aggregate.ByGender),
		"status":    aggregate.Distribution(students, aggregate.ByStatus),
		"year":      years,
		"yearOrder": aggregate.SortedYears(years),
		"course":    aggregate.CourseDistribution(students, courses),
	})
}

func defaultStatus(status string) string {
	if status == "" {
		return model.StatusActive
	}
	return status
}

func defaultLink(status string) string {
	if status == "" {
		return model.StatusInactive
	}
	return status
}

// parseSemester reads an optional semester query parameter.
func parseSemester(c *gin.Context) (*int, bool) {
	raw := c.Query("semester")
	if raw == "" {
		return nil, true
	}
	sem, err := strconv.Atoi(raw)
	if err != nil || sem <= 0 {
		return nil, false
	}
	return &sem, true
}
