package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"attendhub/internal/importer"
	"attendhub/internal/model"
)

// previewStudentImport parses an uploaded workbook and annotates every row
// with its validation outcome. Nothing is created; invalid rows stay in
// the response with their error lists.
func (s *Server) previewStudentImport(c *gin.Context) {
	rows, ok := s.parseUpload(c)
	if !ok {
		return
	}
	var students []model.Student
	var courses []model.Course
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) { students, err = s.facade.ListStudents(ctx); return })
	g.Go(func() (err error) { courses, err = s.facade.ListCourses(ctx); return })
	if err := g.Wait(); err != nil {
		storeFail(c, err)
		return
	}

	annotated := importer.ValidateStudentRows(rows, students, courses)
	c.JSON(http.StatusOK, gin.H{"rows": annotated, "valid": countValid(annotated), "total": len(annotated)})
}

type confirmRequest struct {
	Rows []map[string]string `json:"rows" binding:"required"`
}

// confirmStudentImport re-validates the submitted rows against the current
// lists and creates only those with zero errors, one concurrent create per
// row. A single failing create fails the batch; earlier creates may have
// committed (accepted, not reconciled).
func (s *Server) confirmStudentImport(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	var students []model.Student
	var courses []model.Course
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) { students, err = s.facade.ListStudents(ctx); return })
	g.Go(func() (err error) { courses, err = s.facade.ListCourses(ctx); return })
	if err := g.Wait(); err != nil {
		storeFail(c, err)
		return
	}

	annotated := importer.ValidateStudentRows(req.Rows, students, courses)
	var rejected []importer.Row
	cg, cctx := errgroup.WithContext(c.Request.Context())
	created := 0
	for _, row := range annotated {
		if !row.Valid {
			rejected = append(rejected, row)
			continue
		}
		student := importer.StudentFromRow(row.Fields, courses)
		created++
		cg.Go(func() error {
			_, err := s.facade.CreateStudent(cctx, student)
			return err
		})
	}
	if err := cg.Wait(); err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": created, "rejected": rejected})
}

func (s *Server) previewCourseImport(c *gin.Context) {
	rows, ok := s.parseUpload(c)
	if !ok {
		return
	}
	courses, err := s.facade.ListCourses(c.Request.Context())
	if err != nil {
		storeFail(c, err)
		return
	}
	annotated := importer.ValidateCourseRows(rows, courses)
	c.JSON(http.StatusOK, gin.H{"rows": annotated, "valid": countValid(annotated), "total": len(annotated)})
}

func (s *Server) confirmCourseImport(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	courses, err := s.facade.ListCourses(c.Request.Context())
	if err != nil {
		storeFail(c, err)
		return
	}

	annotated := importer.ValidateCourseRows(req.Rows, courses)
	var rejected []importer.Row
	g, ctx := errgroup.WithContext(c.Request.Context())
	created := 0
	for _, row := range annotated {
		if !row.Valid {
			rejected = append(rejected, row)
			continue
		}
		course := importer.CourseFromRow(row.Fields)
		created++
		g.Go(func() error {
			_, err := s.facade.CreateCourse(ctx, course)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": created, "rejected": rejected})
}

// parseUpload reads the multipart "file" field as a workbook.
func (s *Server) parseUpload(c *gin.Context) ([]map[string]string, bool) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, "file field required")
		return nil, false
	}
	defer file.Close()

	rows, err := importer.Parse(file)
	if err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	return rows, true
}

func countValid(rows []importer.Row) int {
	n := 0
	for _, row := range rows {
		if row.Valid {
			n++
		}
	}
	return n
}
