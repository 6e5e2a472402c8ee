// Package httpapi exposes the dashboard JSON API and the public check-in
// surface. Handlers are thin: they parse input, call the facade, run the
// pure aggregation helpers, and map errors to the three failure classes
// (store fetch/mutation -> 502, validation -> 400, empty export -> 404).
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attendhub/internal/docstore"
	"attendhub/internal/qrlink"
	"attendhub/internal/records"
)

// Server carries handler dependencies.
type Server struct {
	facade  *records.Facade
	deriver *qrlink.Deriver
	store   *docstore.Client
	redis   *docstore.Redis
}

// New builds the API server.
func New(facade *records.Facade, deriver *qrlink.Deriver, store *docstore.Client, redis *docstore.Redis) *Server {
	return &Server{facade: facade, deriver: deriver, store: store, redis: redis}
}

// Register mounts every route on the engine.
func (s *Server) Register(r *gin.Engine) {
	r.GET("/healthz", s.healthz)

	v1 := r.Group("/v1")

	v1.GET("/courses", s.listCourses)
	v1.POST("/courses", s.createCourse)
	v1.PUT("/courses/:id", s.updateCourse)
	v1.DELETE("/courses/:id", s.deleteCourse)
	v1.PATCH("/courses/:id/link", s.toggleCourseLink)
	v1.GET("/courses/:id/semesters", s.availableSemesters)

	v1.GET("/students", s.listStudents)
	v1.GET("/students/grouped", s.groupedStudents)
	v1.POST("/students", s.createStudent)
	v1.PUT("/students/:id", s.updateStudent)
	v1.DELETE("/students/:id", s.deleteStudent)

	v1.GET("/attendance", s.listAttendance)
	v1.GET("/attendance/grouped", s.groupedAttendance)
	v1.GET("/attendance/daily", s.dailyAttendance)
	v1.POST("/attendance", s.createAttendance)
	v1.POST("/attendance/bulk", s.bulkAttendance)
	v1.PUT("/attendance/:id", s.updateAttendance)
	v1.DELETE("/attendance/:id", s.deleteAttendance)

	v1.GET("/locations", s.listLocations)
	v1.POST("/locations", s.createLocation)

	v1.GET("/holidays", s.listHolidays)
	v1.POST("/holidays", s.createHoliday)
	v1.DELETE("/holidays/:id", s.deleteHoliday)

	v1.GET("/dashboard/distributions", s.distributions)

	v1.POST("/imports/students", s.previewStudentImport)
	v1.POST("/imports/students/confirm", s.confirmStudentImport)
	v1.POST("/imports/courses", s.previewCourseImport)
	v1.POST("/imports/courses/confirm", s.confirmCourseImport)

	v1.GET("/exports/students.xlsx", s.exportStudentsXLSX)
	v1.GET("/exports/attendance.xlsx", s.exportAttendanceXLSX)
	v1.GET("/exports/attendance.pdf", s.exportAttendancePDF)

	r.GET("/checkin/:programme/:semester", s.checkinPage)
	r.GET("/checkin/:programme/:semester/qr.png", s.checkinQR)
}

func (s *Server) healthz(c *gin.Context) {
	redisHealthy := s.redis.Healthy(c.Request.Context())
	storeHealthy := s.store.Healthy(c.Request.Context())
	status := http.StatusOK
	if !redisHealthy || !storeHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "store": storeHealthy})
}

// storeFail reports a fetch or mutation failure; local state stays as the
// last known-good store state and no retry is attempted.
func storeFail(c *gin.Context, err error) {
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
