package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"attendhub/internal/qrlink"
)

// checkinPage is the public check-in surface: the programme name arrives
// URL-escaped in the path and resolves to a course by case-insensitive
// exact match. The payload comes from the deriver's live state.
func (s *Server) checkinPage(c *gin.Context) {
	programme, semester, ok := checkinParams(c)
	if !ok {
		return
	}
	course := s.deriver.CourseByName(programme)
	if course == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	payload, err := s.deriver.Payload(course.ID, semester)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"courseId":   course.ID,
		"course":     course.Name,
		"semester":   semester,
		"linkStatus": course.LinkStatus,
		"payload":    payload,
	})
}

func (s *Server) checkinQR(c *gin.Context) {
	programme, semester, ok := checkinParams(c)
	if !ok {
		return
	}
	course := s.deriver.CourseByName(programme)
	if course == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	payload, err := s.deriver.Payload(course.ID, semester)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	png, err := qrlink.PNG(payload, 300)
	if err != nil {
		if errors.Is(err, qrlink.ErrLinkInactive) {
			c.JSON(http.StatusNotFound, gin.H{"error": "link inactive"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func checkinParams(c *gin.Context) (programme string, semester int, ok bool) {
	programme = c.Param("programme")
	if unescaped, err := url.PathUnescape(programme); err == nil {
		programme = unescaped
	}
	semester, err := strconv.Atoi(c.Param("semester"))
	if err != nil || semester <= 0 {
		badRequest(c, "semester must be a positive integer")
		return "", 0, false
	}
	return programme, semester, true
}
